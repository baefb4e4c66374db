package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/config"
	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
)

const roleNotificationConsumer = "role-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// PasswordResetDispatcher sends the set-your-password email a manager gets
// after being granted a role. Delivery failures are retried through the
// event pipeline rather than dropped.
type PasswordResetDispatcher interface {
	DispatchPasswordReset(ctx context.Context, email, firstName string) error
}

// LogDispatcher records the dispatch instead of sending mail. It stands in
// wherever no mail provider is configured. Mail carries the from address
// and reset URL the real provider will use, so the logged line is the
// exact message a provider integration would send.
type LogDispatcher struct {
	Logg *logger.Logger
	Mail config.MailConfig
}

func (d LogDispatcher) DispatchPasswordReset(ctx context.Context, email, firstName string) error {
	if d.Logg != nil {
		fields := map[string]any{"email": email}
		if d.Mail.FromAddress != "" {
			fields["from"] = d.Mail.FromAddress
		}
		if d.Mail.ResetBaseURL != "" {
			fields["reset_url"] = fmt.Sprintf("%s?email=%s", d.Mail.ResetBaseURL, url.QueryEscape(email))
		}
		d.Logg.Info(d.Logg.WithFields(ctx, fields), "password reset dispatch (log only)")
	}
	return nil
}

// Consumer watches domain events and turns role grants into in-app
// notifications and password-reset dispatches.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  idempotencyChecker
	dispatcher   PasswordResetDispatcher
	logg         *logger.Logger
}

// NewConsumer builds a role notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager idempotencyChecker, dispatcher PasswordResetDispatcher, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("password reset dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		dispatcher:   dispatcher,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != string(enums.EventRoleAssigned) {
		c.logg.Info(logCtx, "skipping non-role event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, roleNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.RoleAssignedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, roleNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"user_id": payload.UserID.String(),
		"role":    payload.Role.String(),
	})

	if err := c.handleRoleAssigned(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "role notification failed", err)
		_ = c.idempotency.Delete(ctx, roleNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleRoleAssigned(ctx context.Context, payload payloads.RoleAssignedEvent, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}

	link := "/account"
	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypeRoleAssignment,
		Title:   "Role updated",
		Message: fmt.Sprintf("Your account role is now %s.", payload.Role),
		Link:    &link,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}

	// Manager grants trigger the onboarding email. The event is nacked on
	// dispatch failure, so delivery retries ride the outbox pipeline
	// instead of being dropped.
	if payload.Role == enums.UserRolePropertyManager {
		if err := c.dispatcher.DispatchPasswordReset(ctx, payload.Email, payload.FirstName); err != nil {
			return fmt.Errorf("dispatch password reset: %w", err)
		}
		c.logg.Info(logCtx, "manager onboarding dispatched")
	}
	return nil
}
