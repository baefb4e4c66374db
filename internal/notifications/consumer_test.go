package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
)

type recordingNotificationRepo struct {
	created []*models.Notification
	err     error
}

func (r *recordingNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, notification)
	return nil
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if f.check != nil {
		return f.check(ctx, consumer, eventID)
	}
	return false, nil
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, consumer, eventID)
	}
	return nil
}

type recordingResetDispatcher struct {
	emails []string
	err    error
}

func (d *recordingResetDispatcher) DispatchPasswordReset(ctx context.Context, email, firstName string) error {
	if d.err != nil {
		return d.err
	}
	d.emails = append(d.emails, email)
	return nil
}

func mustConsumer(t *testing.T, repo repository, manager idempotencyChecker, dispatcher PasswordResetDispatcher) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	consumer, err := NewConsumer(repo, &pubsub.Subscriber{}, manager, dispatcher, logg)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return consumer
}

func buildRoleMessage(t *testing.T, payload payloads.RoleAssignedEvent) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		Attributes: map[string]string{"event_type": string(enums.EventRoleAssigned)},
		Data:       body,
	}
}

func TestConsumerCreatesRoleNotification(t *testing.T) {
	t.Parallel()

	repo := &recordingNotificationRepo{}
	dispatcher := &recordingResetDispatcher{}
	consumer := mustConsumer(t, repo, fakeIdempotency{}, dispatcher)

	userID := uuid.New()
	msg := buildRoleMessage(t, payloads.RoleAssignedEvent{
		UserID: userID,
		Role:   enums.UserRoleTenant,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack result, got %+v", result)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	if repo.created[0].UserID != userID {
		t.Fatalf("notification scoped to wrong user")
	}
	if repo.created[0].Type != enums.NotificationTypeRoleAssignment {
		t.Fatalf("unexpected notification type %s", repo.created[0].Type)
	}
	if len(dispatcher.emails) != 0 {
		t.Fatalf("tenant grant should not dispatch password reset")
	}
}

func TestConsumerDispatchesManagerOnboarding(t *testing.T) {
	t.Parallel()

	repo := &recordingNotificationRepo{}
	dispatcher := &recordingResetDispatcher{}
	consumer := mustConsumer(t, repo, fakeIdempotency{}, dispatcher)

	msg := buildRoleMessage(t, payloads.RoleAssignedEvent{
		UserID:    uuid.New(),
		Email:     "manager@example.com",
		FirstName: "Asha",
		Role:      enums.UserRolePropertyManager,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack result, got %+v", result)
	}
	if len(dispatcher.emails) != 1 || dispatcher.emails[0] != "manager@example.com" {
		t.Fatalf("expected onboarding dispatch, got %v", dispatcher.emails)
	}
}

func TestConsumerSkipsOtherEvents(t *testing.T) {
	t.Parallel()

	repo := &recordingNotificationRepo{}
	consumer := mustConsumer(t, repo, fakeIdempotency{}, &recordingResetDispatcher{})

	msg := &pubsub.Message{
		Attributes: map[string]string{"event_type": string(enums.EventUserSuspended)},
		Data:       []byte(`{}`),
	}
	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for skipped event")
	}
	if len(repo.created) != 0 {
		t.Fatalf("no notification expected for skipped event")
	}
}

func TestConsumerAcksAlreadyProcessed(t *testing.T) {
	t.Parallel()

	repo := &recordingNotificationRepo{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	consumer := mustConsumer(t, repo, manager, &recordingResetDispatcher{})

	msg := buildRoleMessage(t, payloads.RoleAssignedEvent{UserID: uuid.New(), Role: enums.UserRoleTenant})
	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for duplicate event")
	}
	if len(repo.created) != 0 {
		t.Fatalf("duplicate event must not create a notification")
	}
}

func TestConsumerNacksAndReleasesKeyOnFailure(t *testing.T) {
	t.Parallel()

	repo := &recordingNotificationRepo{err: errors.New("db down")}
	deleted := false
	manager := fakeIdempotency{
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, repo, manager, &recordingResetDispatcher{})

	msg := buildRoleMessage(t, payloads.RoleAssignedEvent{UserID: uuid.New(), Role: enums.UserRoleTenant})
	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack when persistence fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key release on failure")
	}
}
