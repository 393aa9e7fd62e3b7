package domain

import "time"

// MessageKind tags the change a mailbox message describes.
type MessageKind string

const (
	MessagePermissionChanged MessageKind = "PermissionChanged"
	MessageTaskCreated       MessageKind = "TaskCreated"
	MessageTaskUpdated       MessageKind = "TaskUpdated"
	MessageTaskDeleted       MessageKind = "TaskDeleted"
	MessageCommentAdded      MessageKind = "CommentAdded"
)

// MessagePayload is the structured change description carried by a message.
// Permission changes fill the workspace and role fields; task events fill the
// task snapshot fields. For TaskDeleted the snapshot reflects the task as it
// existed before deletion.
type MessagePayload struct {
	Kind  MessageKind `json:"kind"`
	Actor string      `json:"actor"`

	// Permission change fields
	WorkspaceID   string `json:"workspaceId,omitempty"`
	WorkspaceName string `json:"workspaceName,omitempty"`
	OldRole       Role   `json:"oldRole,omitempty"`
	NewRole       Role   `json:"newRole,omitempty"`

	// Task event fields
	TaskID    string `json:"taskId,omitempty"`
	TaskTitle string `json:"taskTitle,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// Message is one entry in a user's mailbox. The log is append-only: a message
// is removed only by an explicit per-id acknowledgment from its recipient.
type Message struct {
	ID        string         `json:"id" db:"id"`
	Recipient string         `json:"recipient" db:"recipient"`
	Payload   MessagePayload `json:"payload" db:"payload"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}
