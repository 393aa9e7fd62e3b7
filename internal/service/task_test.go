package service

import (
	"context"
	"testing"

	"agileboard-api/internal/domain"
	"agileboard-api/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(tasks *MockTaskManager, comments *MockCommentLister, projects *MockProjectChecker, notifier *MockTaskNotifier) *TaskService {
	return NewTaskService(tasks, comments, projects, notifier, newTestLogger())
}

func TestTaskService_Create_ReporterDefaultsToActor(t *testing.T) {
	tasks := new(MockTaskManager)
	projects := new(MockProjectChecker)
	notifier := new(MockTaskNotifier)
	svc := newTaskService(tasks, new(MockCommentLister), projects, notifier)

	ctx := context.Background()
	projects.On("Get", ctx, "p-1").Return(&domain.Project{ID: "p-1"}, nil)

	var created *domain.Task
	tasks.On("Create", ctx, mock.AnythingOfType("*domain.Task")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.Task)
	}).Return(nil)
	notifier.On("NotifyTaskEvent", ctx, domain.MessageTaskCreated, "alice", mock.Anything, "").Return(nil)

	req := &domain.CreateTaskRequest{
		Title:    "Fix login flow",
		Type:     domain.TaskTypeIssue,
		Priority: domain.TaskPriorityNormal,
		Status:   domain.TaskStatusTodo,
		Assignee: "bob",
	}

	task, err := svc.Create(ctx, "alice", "p-1", req)

	require.NoError(t, err)
	assert.Equal(t, "alice", task.Reporter)
	assert.True(t, task.Visible)
	assert.NotEmpty(t, created.ID)
	notifier.AssertExpectations(t)
}

func TestTaskService_Create_UnknownProject(t *testing.T) {
	tasks := new(MockTaskManager)
	projects := new(MockProjectChecker)
	svc := newTaskService(tasks, new(MockCommentLister), projects, new(MockTaskNotifier))

	ctx := context.Background()
	projects.On("Get", ctx, "nope").Return(nil, repo.ErrProjectNotFound)

	_, err := svc.Create(ctx, "alice", "nope", &domain.CreateTaskRequest{})

	assert.ErrorIs(t, err, ErrNotFound)
	tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskService_Board_EveryColumnPresent(t *testing.T) {
	tasks := new(MockTaskManager)
	projects := new(MockProjectChecker)
	svc := newTaskService(tasks, new(MockCommentLister), projects, new(MockTaskNotifier))

	ctx := context.Background()
	projects.On("Get", ctx, "p-1").Return(&domain.Project{ID: "p-1"}, nil)
	tasks.On("ListByProject", ctx, "p-1", true).Return([]domain.Task{
		{ID: "t-1", Status: domain.TaskStatusDone},
	}, nil)

	board, err := svc.Board(ctx, "p-1", true)

	require.NoError(t, err)
	require.Len(t, board, 4)
	assert.Len(t, board[domain.TaskStatusDone], 1)
	assert.Empty(t, board[domain.TaskStatusBacklog])
}

func TestTaskService_Board_HiddenFilterPassedThrough(t *testing.T) {
	tasks := new(MockTaskManager)
	projects := new(MockProjectChecker)
	svc := newTaskService(tasks, new(MockCommentLister), projects, new(MockTaskNotifier))

	ctx := context.Background()
	projects.On("Get", ctx, "p-1").Return(&domain.Project{ID: "p-1"}, nil)
	tasks.On("ListByProject", ctx, "p-1", false).Return([]domain.Task{}, nil)

	_, err := svc.Board(ctx, "p-1", false)

	require.NoError(t, err)
	tasks.AssertCalled(t, "ListByProject", ctx, "p-1", false)
}

func TestTaskService_Get_IncludesComments(t *testing.T) {
	tasks := new(MockTaskManager)
	comments := new(MockCommentLister)
	svc := newTaskService(tasks, comments, new(MockProjectChecker), new(MockTaskNotifier))

	ctx := context.Background()
	tasks.On("Get", ctx, "t-1").Return(&domain.Task{ID: "t-1", Title: "Fix login flow"}, nil)
	comments.On("ListByTask", ctx, "t-1").Return([]domain.Comment{{ID: "c-1"}}, nil)

	detail, err := svc.Get(ctx, "t-1")

	require.NoError(t, err)
	assert.Equal(t, "t-1", detail.ID)
	require.Len(t, detail.Comments, 1)
}

func TestTaskService_Delete_NotifiesWithSnapshotBeforeDeleting(t *testing.T) {
	tasks := new(MockTaskManager)
	notifier := new(MockTaskNotifier)
	svc := newTaskService(tasks, new(MockCommentLister), new(MockProjectChecker), notifier)

	ctx := context.Background()
	snapshot := &domain.Task{
		ID:       "t-1",
		Title:    "Fix login flow",
		Assignee: "alice",
		Reporter: "bob",
	}

	var sequence []string
	tasks.On("Get", ctx, "t-1").Return(snapshot, nil)
	notifier.On("NotifyTaskEvent", ctx, domain.MessageTaskDeleted, "carol", snapshot, "").Run(func(mock.Arguments) {
		sequence = append(sequence, "notify")
	}).Return(nil)
	tasks.On("Delete", ctx, "t-1").Run(func(mock.Arguments) {
		sequence = append(sequence, "delete")
	}).Return(nil)

	err := svc.Delete(ctx, "carol", "t-1")

	require.NoError(t, err)
	// Messages are built from the row while it still exists.
	assert.Equal(t, []string{"notify", "delete"}, sequence)
}

func TestTaskService_Delete_FanoutFailureStillDeletes(t *testing.T) {
	tasks := new(MockTaskManager)
	notifier := new(MockTaskNotifier)
	svc := newTaskService(tasks, new(MockCommentLister), new(MockProjectChecker), notifier)

	ctx := context.Background()
	tasks.On("Get", ctx, "t-1").Return(&domain.Task{ID: "t-1"}, nil)
	notifier.On("NotifyTaskEvent", ctx, domain.MessageTaskDeleted, "carol", mock.Anything, "").Return(assert.AnError)
	tasks.On("Delete", ctx, "t-1").Return(nil)

	err := svc.Delete(ctx, "carol", "t-1")

	require.NoError(t, err)
	tasks.AssertCalled(t, "Delete", ctx, "t-1")
}

func TestTaskService_Watch_UnknownTask(t *testing.T) {
	tasks := new(MockTaskManager)
	svc := newTaskService(tasks, new(MockCommentLister), new(MockProjectChecker), new(MockTaskNotifier))

	ctx := context.Background()
	tasks.On("Get", ctx, "nope").Return(nil, repo.ErrTaskNotFound)

	err := svc.Watch(ctx, "alice", "nope")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_Unwatch_AssigneeAndReporterAreLocked(t *testing.T) {
	tasks := new(MockTaskManager)
	svc := newTaskService(tasks, new(MockCommentLister), new(MockProjectChecker), new(MockTaskNotifier))

	ctx := context.Background()
	tasks.On("Get", ctx, "t-1").Return(&domain.Task{
		ID:       "t-1",
		Assignee: "alice",
		Reporter: "bob",
		Watchers: []string{"alice", "bob", "carol"},
	}, nil)

	for _, locked := range []string{"alice", "bob"} {
		err := svc.Unwatch(ctx, locked, "t-1")
		var authErr *AuthorizationError
		require.ErrorAs(t, err, &authErr, "user %s", locked)
		assert.Equal(t, "Task assignee and reporter cannot unwatch.", authErr.Reason)
	}
	tasks.AssertNotCalled(t, "RemoveWatcher", mock.Anything, mock.Anything, mock.Anything)

	tasks.On("RemoveWatcher", ctx, "t-1", "carol").Return(nil)
	assert.NoError(t, svc.Unwatch(ctx, "carol", "t-1"))
}
