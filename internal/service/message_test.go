package service

import (
	"context"
	"testing"

	"agileboard-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxService_Pull_EmptyMailboxIsNotNil(t *testing.T) {
	messages := new(MockMessageStore)
	svc := NewMailboxService(messages, newTestLogger())

	ctx := context.Background()
	messages.On("ListByRecipient", ctx, "alice").Return(nil, nil)

	got, err := svc.Pull(ctx, "alice")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMailboxService_Pull_IsNonDestructive(t *testing.T) {
	messages := new(MockMessageStore)
	svc := NewMailboxService(messages, newTestLogger())

	ctx := context.Background()
	mailbox := []domain.Message{{ID: "m-1", Recipient: "alice"}}
	messages.On("ListByRecipient", ctx, "alice").Return(mailbox, nil)

	first, err := svc.Pull(ctx, "alice")
	require.NoError(t, err)
	second, err := svc.Pull(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	messages.AssertNotCalled(t, "DeleteByIDs")
}

func TestMailboxService_Ack_ScopedToRecipient(t *testing.T) {
	messages := new(MockMessageStore)
	svc := NewMailboxService(messages, newTestLogger())

	ctx := context.Background()
	messages.On("DeleteByIDs", ctx, "alice", []string{"m-1", "m-9"}).Return(nil)

	// m-9 may belong to someone else or nobody; the store ignores it.
	err := svc.Ack(ctx, "alice", []string{"m-1", "m-9"})

	require.NoError(t, err)
	messages.AssertExpectations(t)
}
