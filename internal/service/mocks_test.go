package service

import (
	"context"

	"agileboard-api/internal/domain"
	"agileboard-api/internal/observability/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *logger.Logger {
	log, _ := logger.New("test", "error")
	return log
}

// fakeTx satisfies pgx.Tx for reconciler tests. Only Commit and Rollback
// matter; the data methods are never reached because the store itself is
// mocked.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return tx, nil }

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

func (tx *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (tx *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (tx *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (tx *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (tx *fakeTx) Conn() *pgx.Conn { return nil }

// MockPermissionStore mocks the PermissionStore interface
type MockPermissionStore struct {
	mock.Mock
}

func (m *MockPermissionStore) Get(ctx context.Context, workspaceID, username string) (*domain.Permission, error) {
	args := m.Called(ctx, workspaceID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Permission), args.Error(1)
}

func (m *MockPermissionStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Permission, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Permission), args.Error(1)
}

func (m *MockPermissionStore) ListWorkspaceIDsByRole(ctx context.Context, username string, role domain.Role) ([]string, error) {
	args := m.Called(ctx, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPermissionStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockPermissionStore) ListByWorkspaceForUpdate(ctx context.Context, tx pgx.Tx, workspaceID string) ([]domain.Permission, error) {
	args := m.Called(ctx, tx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Permission), args.Error(1)
}

func (m *MockPermissionStore) UpdateRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string, role domain.Role, grantedBy string) error {
	args := m.Called(ctx, tx, workspaceID, usernames, role, grantedBy)
	return args.Error(0)
}

func (m *MockPermissionStore) CreateRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string, role domain.Role, grantedBy string) error {
	args := m.Called(ctx, tx, workspaceID, usernames, role, grantedBy)
	return args.Error(0)
}

func (m *MockPermissionStore) DeleteRoles(ctx context.Context, tx pgx.Tx, workspaceID string, usernames []string) error {
	args := m.Called(ctx, tx, workspaceID, usernames)
	return args.Error(0)
}

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) ExistingUsernames(ctx context.Context, usernames []string) (map[string]bool, error) {
	args := m.Called(ctx, usernames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockUserStore) ListUsernamesExcluding(ctx context.Context, exclude []string) ([]string, error) {
	args := m.Called(ctx, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockWorkspaceStore mocks the WorkspaceStore interface
type MockWorkspaceStore struct {
	mock.Mock
}

func (m *MockWorkspaceStore) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workspace), args.Error(1)
}

func (m *MockWorkspaceStore) ListIDsExcluding(ctx context.Context, exclude []string) ([]string, error) {
	args := m.Called(ctx, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockPermissionNotifier mocks the PermissionNotifier interface
type MockPermissionNotifier struct {
	mock.Mock
}

func (m *MockPermissionNotifier) NotifyPermissionChange(ctx context.Context, actor string, workspace *domain.Workspace, changes domain.ChangeList) error {
	args := m.Called(ctx, actor, workspace, changes)
	return args.Error(0)
}

// MockMessageAppender mocks the MessageAppender interface
type MockMessageAppender struct {
	mock.Mock
}

func (m *MockMessageAppender) Append(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockTaskManager mocks the TaskManager interface
type MockTaskManager struct {
	mock.Mock
}

func (m *MockTaskManager) Create(ctx context.Context, t *domain.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskManager) Get(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskManager) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Task, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *MockTaskManager) ListByProject(ctx context.Context, projectID string, visible bool) ([]domain.Task, error) {
	args := m.Called(ctx, projectID, visible)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *MockTaskManager) Update(ctx context.Context, id string, req *domain.UpdateTaskRequest) error {
	args := m.Called(ctx, id, req)
	return args.Error(0)
}

func (m *MockTaskManager) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskManager) AddWatcher(ctx context.Context, taskID, username string) error {
	args := m.Called(ctx, taskID, username)
	return args.Error(0)
}

func (m *MockTaskManager) RemoveWatcher(ctx context.Context, taskID, username string) error {
	args := m.Called(ctx, taskID, username)
	return args.Error(0)
}

// MockCommentLister mocks the CommentLister interface
type MockCommentLister struct {
	mock.Mock
}

func (m *MockCommentLister) ListByTask(ctx context.Context, taskID string) ([]domain.Comment, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

// MockTaskNotifier mocks the TaskNotifier interface
type MockTaskNotifier struct {
	mock.Mock
}

func (m *MockTaskNotifier) NotifyTaskEvent(ctx context.Context, kind domain.MessageKind, actor string, task *domain.Task, comment string) error {
	args := m.Called(ctx, kind, actor, task, comment)
	return args.Error(0)
}

// MockProjectChecker mocks the ProjectChecker interface
type MockProjectChecker struct {
	mock.Mock
}

func (m *MockProjectChecker) Get(ctx context.Context, id string) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

// MockCommentManager mocks the CommentManager interface
type MockCommentManager struct {
	mock.Mock
}

func (m *MockCommentManager) Create(ctx context.Context, c *domain.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCommentManager) Get(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockCommentManager) Update(ctx context.Context, id, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockCommentManager) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTaskGetter mocks the TaskGetter interface
type MockTaskGetter struct {
	mock.Mock
}

func (m *MockTaskGetter) Get(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

// MockMessageStore mocks the MessageStore interface
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) ListByRecipient(ctx context.Context, recipient string) ([]domain.Message, error) {
	args := m.Called(ctx, recipient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockMessageStore) DeleteByIDs(ctx context.Context, recipient string, ids []string) error {
	args := m.Called(ctx, recipient, ids)
	return args.Error(0)
}

// MockWorkspaceManager mocks the WorkspaceManager interface
type MockWorkspaceManager struct {
	mock.Mock
}

func (m *MockWorkspaceManager) Create(ctx context.Context, ws *domain.Workspace) error {
	args := m.Called(ctx, ws)
	return args.Error(0)
}

func (m *MockWorkspaceManager) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workspace), args.Error(1)
}

func (m *MockWorkspaceManager) List(ctx context.Context) ([]domain.Workspace, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Workspace), args.Error(1)
}

func (m *MockWorkspaceManager) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRoleGranter mocks the RoleGranter interface
type MockRoleGranter struct {
	mock.Mock
}

func (m *MockRoleGranter) Grant(ctx context.Context, workspaceID, username string, role domain.Role, grantedBy string) error {
	args := m.Called(ctx, workspaceID, username, role, grantedBy)
	return args.Error(0)
}

// MockPermissionGetter mocks the PermissionGetter interface
type MockPermissionGetter struct {
	mock.Mock
}

func (m *MockPermissionGetter) Get(ctx context.Context, workspaceID, username string) (*domain.Permission, error) {
	args := m.Called(ctx, workspaceID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Permission), args.Error(1)
}

// MockWorkspaceChecker mocks the WorkspaceChecker interface
type MockWorkspaceChecker struct {
	mock.Mock
}

func (m *MockWorkspaceChecker) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockWorkspaceIDResolver mocks the WorkspaceIDResolver interface
type MockWorkspaceIDResolver struct {
	mock.Mock
}

func (m *MockWorkspaceIDResolver) GetWorkspaceID(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
