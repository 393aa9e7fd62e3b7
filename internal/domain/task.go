package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskType classifies a task (native PostgreSQL ENUM).
type TaskType string

const (
	TaskTypeStory  TaskType = "story"
	TaskTypeIssue  TaskType = "issue"
	TaskTypeAction TaskType = "action"
)

// IsValid checks if the value is one of the defined task types.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeStory, TaskTypeIssue, TaskTypeAction:
		return true
	}
	return false
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (t *TaskType) Scan(src interface{}) error {
	str, err := scanEnumString(src, "TaskType")
	if err != nil {
		return err
	}
	*t = TaskType(str)
	if !t.IsValid() {
		return fmt.Errorf("invalid TaskType value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (t TaskType) Value() (driver.Value, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid TaskType value: %s", string(t))
	}
	return string(t), nil
}

// TaskPriority ranks a task's urgency (native PostgreSQL ENUM).
type TaskPriority string

const (
	TaskPriorityCritical  TaskPriority = "critical"
	TaskPriorityImportant TaskPriority = "important"
	TaskPriorityNormal    TaskPriority = "normal"
	TaskPriorityLow       TaskPriority = "low"
)

// IsValid checks if the value is one of the defined priorities.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityCritical, TaskPriorityImportant, TaskPriorityNormal, TaskPriorityLow:
		return true
	}
	return false
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (p *TaskPriority) Scan(src interface{}) error {
	str, err := scanEnumString(src, "TaskPriority")
	if err != nil {
		return err
	}
	*p = TaskPriority(str)
	if !p.IsValid() {
		return fmt.Errorf("invalid TaskPriority value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (p TaskPriority) Value() (driver.Value, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid TaskPriority value: %s", string(p))
	}
	return string(p), nil
}

// TaskStatus places a task on the kanban board (native PostgreSQL ENUM).
type TaskStatus string

const (
	TaskStatusBacklog    TaskStatus = "backlog"
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusDone       TaskStatus = "done"
)

// AllTaskStatuses lists the statuses in board column order.
var AllTaskStatuses = []TaskStatus{
	TaskStatusBacklog,
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusDone,
}

// IsValid checks if the value is one of the defined statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusBacklog, TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (s *TaskStatus) Scan(src interface{}) error {
	str, err := scanEnumString(src, "TaskStatus")
	if err != nil {
		return err
	}
	*s = TaskStatus(str)
	if !s.IsValid() {
		return fmt.Errorf("invalid TaskStatus value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (s TaskStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid TaskStatus value: %s", string(s))
	}
	return string(s), nil
}

func scanEnumString(src interface{}, typeName string) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into %s", src, typeName)
	}
}

// Task is a unit of work inside a project. The owning project is immutable
// after creation. Watchers, the assignee and the reporter form the recipient
// set for task change notifications.
type Task struct {
	ID          string       `json:"id" db:"id"`
	ProjectID   string       `json:"projectId" db:"project_id"`
	Type        TaskType     `json:"type" db:"type"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	Status      TaskStatus   `json:"status" db:"status"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Assignee    string       `json:"assignee" db:"assignee"`
	Reporter    string       `json:"reporter" db:"reporter"`
	Visible     bool         `json:"visible" db:"visible"`
	Watchers    []string     `json:"watchers,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
}

// IsWatchedBy reports whether username is in the watcher set.
func (t *Task) IsWatchedBy(username string) bool {
	for _, w := range t.Watchers {
		if w == username {
			return true
		}
	}
	return false
}

// NotifyRecipients returns the users who should hear about a change to this
// task: assignee, reporter and all watchers, minus the acting user. Actors
// never notify themselves.
func (t *Task) NotifyRecipients(actor string) []string {
	seen := make(map[string]struct{}, len(t.Watchers)+2)
	recipients := make([]string, 0, len(t.Watchers)+2)

	add := func(username string) {
		if username == "" || username == actor {
			return
		}
		if _, ok := seen[username]; ok {
			return
		}
		seen[username] = struct{}{}
		recipients = append(recipients, username)
	}

	add(t.Assignee)
	add(t.Reporter)
	for _, w := range t.Watchers {
		add(w)
	}
	return recipients
}

// TaskDetail is the GET /v1/tasks/{taskID} payload: the task plus its
// comments, newest first.
type TaskDetail struct {
	Task
	Comments []Comment `json:"comments"`
}

// TaskBoard groups a project's tasks by status for the kanban view. Every
// status key is present even when its column is empty.
type TaskBoard map[TaskStatus][]Task

// NewTaskBoard builds a board from a flat task list, preserving input order
// inside each column.
func NewTaskBoard(tasks []Task) TaskBoard {
	board := make(TaskBoard, len(AllTaskStatuses))
	for _, status := range AllTaskStatuses {
		board[status] = []Task{}
	}
	for _, task := range tasks {
		board[task.Status] = append(board[task.Status], task)
	}
	return board
}

// CreateTaskRequest is the body of POST /v1/projects/{projectID}/tasks.
// ProjectID comes from the path and the reporter defaults to the caller.
type CreateTaskRequest struct {
	Title       string       `json:"title" validate:"required,min=1,max=500"`
	Description string       `json:"description" validate:"max=5000"`
	Type        TaskType     `json:"type" validate:"required,oneof=story issue action"`
	Priority    TaskPriority `json:"priority" validate:"required,oneof=critical important normal low"`
	Status      TaskStatus   `json:"status" validate:"required,oneof=backlog todo inprogress done"`
	Assignee    string       `json:"assignee" validate:"required"`
	Reporter    string       `json:"reporter"`
}

// Validate sanitizes and validates the request.
func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	validate := validator.New()
	return validate.Struct(r)
}

// UpdateTaskRequest is the body of PUT /v1/tasks/{taskID}.
// Nil fields are left unchanged; the owning project cannot be moved.
type UpdateTaskRequest struct {
	Title       *string       `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=5000"`
	Type        *TaskType     `json:"type,omitempty" validate:"omitempty,oneof=story issue action"`
	Priority    *TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=critical important normal low"`
	Status      *TaskStatus   `json:"status,omitempty" validate:"omitempty,oneof=backlog todo inprogress done"`
	Assignee    *string       `json:"assignee,omitempty"`
	Visible     *bool         `json:"visible,omitempty"`
}

// Validate sanitizes and validates the request.
func (r *UpdateTaskRequest) Validate() error {
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}
	if r.Description != nil {
		trimmed := strings.TrimSpace(*r.Description)
		r.Description = &trimmed
	}

	validate := validator.New()
	return validate.Struct(r)
}
