package reconciler

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
)

type sweepRunner interface {
	RunJob(ctx context.Context, name string) error
}

// Consumer maps domain events to the sweep that converges the drift they can
// introduce. Sweeps are idempotent, so duplicate deliveries just rerun a
// no-op sweep; no idempotency bookkeeping is needed here.
type Consumer struct {
	subscription *pubsub.Subscriber
	runner       sweepRunner
	logg         *logger.Logger
	triggers     map[string]string
}

// NewConsumer builds the event-driven sweep trigger.
func NewConsumer(subscription *pubsub.Subscriber, runner sweepRunner, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if runner == nil {
		return nil, fmt.Errorf("sweep runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		runner:       runner,
		logg:         logg,
		triggers: map[string]string{
			string(enums.EventRoleUnassigned):    RoleIntegrityJobName,
			string(enums.EventUserSuspended):     RoleIntegrityJobName,
			string(enums.EventUnitStatusChanged): UnitStatusJobName,
			string(enums.EventTenancyAssigned):   UnitStatusJobName,
			string(enums.EventTenancyVacated):    UnitStatusJobName,
			string(enums.EventPropertyDeleted):   RoleIntegrityJobName,
		},
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	job, ok := c.triggers[eventType]
	if !ok {
		return true
	}

	logCtx = c.logg.WithField(logCtx, "job", job)
	if err := c.runner.RunJob(ctx, job); err != nil {
		c.logg.Error(logCtx, "event-triggered sweep failed", err)
		return false
	}
	c.logg.Info(logCtx, "event-triggered sweep complete")
	return true
}
