package service

import (
	"context"
	"fmt"

	"agileboard-api/internal/domain"
	"agileboard-api/internal/observability/logger"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MessageAppender is the mailbox write surface the fanout consumes.
type MessageAppender interface {
	Append(ctx context.Context, m *domain.Message) error
}

// Fanout converts one domain event into per-recipient mailbox messages.
//
// Writes are independent per recipient: one failed append never blocks
// delivery to the others. Failures are collected, logged and counted for
// operators; they are never surfaced to the user who triggered the event and
// never roll back the mutation that produced it.
type Fanout struct {
	messages MessageAppender
	failures prometheus.Counter
	log      *logger.Logger
}

// NewFanout creates a new Fanout. failures may be nil in tests.
func NewFanout(messages MessageAppender, failures prometheus.Counter, log *logger.Logger) *Fanout {
	return &Fanout{
		messages: messages,
		failures: failures,
		log:      log,
	}
}

// NotifyPermissionChange enqueues one message per changelist entry,
// addressed to the affected user. The actor does not hear about grants they
// made unless they appear in the changelist themselves (a self-demotion is
// still notified).
func (f *Fanout) NotifyPermissionChange(ctx context.Context, actor string, workspace *domain.Workspace, changes domain.ChangeList) error {
	var errs error
	for _, change := range changes {
		payload := domain.MessagePayload{
			Kind:          domain.MessagePermissionChanged,
			Actor:         actor,
			WorkspaceID:   workspace.ID,
			WorkspaceName: workspace.Name,
			OldRole:       change.OldRole,
			NewRole:       change.NewRole,
		}
		errs = multierr.Append(errs, f.deliver(ctx, change.Username, payload))
	}
	return errs
}

// NotifyTaskEvent enqueues messages about a task mutation to the union of
// assignee, reporter and watchers, minus the acting user. For TaskDeleted
// the task argument must be the pre-deletion snapshot; the payload describes
// the entity as it existed before removal.
func (f *Fanout) NotifyTaskEvent(ctx context.Context, kind domain.MessageKind, actor string, task *domain.Task, comment string) error {
	payload := domain.MessagePayload{
		Kind:      kind,
		Actor:     actor,
		TaskID:    task.ID,
		TaskTitle: task.Title,
		ProjectID: task.ProjectID,
		Comment:   comment,
	}

	var errs error
	for _, recipient := range task.NotifyRecipients(actor) {
		errs = multierr.Append(errs, f.deliver(ctx, recipient, payload))
	}
	return errs
}

func (f *Fanout) deliver(ctx context.Context, recipient string, payload domain.MessagePayload) error {
	msg := &domain.Message{
		ID:        generateID(),
		Recipient: recipient,
		Payload:   payload,
	}

	if err := f.messages.Append(ctx, msg); err != nil {
		if f.failures != nil {
			f.failures.Inc()
		}
		f.log.Error(ctx, "mailbox append failed",
			logger.Module("fanout"),
			zap.String("recipient", recipient),
			zap.String("kind", string(payload.Kind)),
			zap.Error(err),
		)
		return fmt.Errorf("deliver to %s: %w", recipient, err)
	}
	return nil
}
