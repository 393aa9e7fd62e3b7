package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"agileboard-api/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository is the mailbox store: an append-only per-recipient
// message log. Rows are removed only by explicit per-id acknowledgment from
// the owning recipient.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository instance.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Append inserts a message into the recipient's mailbox.
func (r *MessageRepository) Append(ctx context.Context, m *domain.Message) error {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return fmt.Errorf("marshal message payload: %w", err)
	}

	query := `
		INSERT INTO messages (id, recipient, payload, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query, m.ID, m.Recipient, payload).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListByRecipient retrieves the recipient's unacknowledged messages in
// creation order. Repeated pulls before an ack return the same set.
func (r *MessageRepository) ListByRecipient(ctx context.Context, recipient string) ([]domain.Message, error) {
	query := `
		SELECT id, recipient, payload, created_at
		FROM messages
		WHERE recipient = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, recipient)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var payload []byte
		if err := rows.Scan(&m.ID, &m.Recipient, &payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal(payload, &m.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal message payload: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// DeleteByIDs acknowledges messages by id, deleting only rows owned by the
// given recipient. Ids belonging to another recipient (or to nothing) are
// silently skipped; that is not an error.
func (r *MessageRepository) DeleteByIDs(ctx context.Context, recipient string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		DELETE FROM messages
		WHERE recipient = $1 AND id = ANY($2)
	`

	if _, err := r.pool.Exec(ctx, query, recipient, ids); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
