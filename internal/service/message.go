package service

import (
	"context"
	"fmt"

	"agileboard-api/internal/domain"
	"agileboard-api/internal/observability/logger"

	"go.uber.org/zap"
)

// MessageStore is the mailbox surface the mailbox service consumes.
type MessageStore interface {
	ListByRecipient(ctx context.Context, recipient string) ([]domain.Message, error)
	DeleteByIDs(ctx context.Context, recipient string, ids []string) error
}

// MailboxService exposes a user's own mailbox: pull the unacknowledged
// messages, acknowledge them by id. Both operations are scoped to the caller;
// nobody reads or acks another user's mailbox.
type MailboxService struct {
	messages MessageStore
	log      *logger.Logger
}

// NewMailboxService creates a new MailboxService.
func NewMailboxService(messages MessageStore, log *logger.Logger) *MailboxService {
	return &MailboxService{messages: messages, log: log}
}

// Pull returns the caller's unacknowledged messages in creation order.
// Pulling is non-destructive: repeated pulls before an ack return the same
// set, so delivery is at-least-once.
func (s *MailboxService) Pull(ctx context.Context, recipient string) ([]domain.Message, error) {
	messages, err := s.messages.ListByRecipient(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("pull messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// Ack deletes the caller's messages matching the given ids. Ids owned by
// another recipient, or matching nothing, are silently ignored.
func (s *MailboxService) Ack(ctx context.Context, recipient string, ids []string) error {
	if err := s.messages.DeleteByIDs(ctx, recipient, ids); err != nil {
		return fmt.Errorf("ack messages: %w", err)
	}

	s.log.Debug(ctx, "messages acknowledged",
		logger.Module("mailbox"),
		zap.String("recipient", recipient),
		zap.Int("ids", len(ids)),
	)
	return nil
}
