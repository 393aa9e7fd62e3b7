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

func newPermissionService(perms *MockPermissionStore, users *MockUserStore, workspaces *MockWorkspaceStore, notifier *MockPermissionNotifier) *PermissionService {
	return NewPermissionService(perms, users, workspaces, notifier, newTestLogger())
}

func TestPermissionService_UserTable_SynthesizesViewers(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	svc := newPermissionService(perms, users, workspaces, new(MockPermissionNotifier))

	ctx := context.Background()
	ws := &domain.Workspace{ID: "ws-1", Name: "Platform"}

	workspaces.On("Get", ctx, "ws-1").Return(ws, nil)
	perms.On("ListByWorkspace", ctx, "ws-1").Return([]domain.Permission{
		{WorkspaceID: "ws-1", Username: "dave", Role: domain.RoleAdmin},
		{WorkspaceID: "ws-1", Username: "bob", Role: domain.RoleEditor},
	}, nil)
	users.On("ListUsernamesExcluding", ctx, []string{"dave", "bob"}).Return([]string{"alice", "erin"}, nil)

	table, err := svc.UserTable(ctx, "ws-1")

	require.NoError(t, err)
	require.Len(t, table, 4)
	// Sorted by username, explicit and synthesized rows interleaved.
	assert.Equal(t, "alice", table[0].Username)
	assert.Equal(t, domain.RoleViewer, table[0].Role)
	assert.Equal(t, "bob", table[1].Username)
	assert.Equal(t, domain.RoleEditor, table[1].Role)
	assert.Equal(t, "dave", table[2].Username)
	assert.Equal(t, domain.RoleAdmin, table[2].Role)
	assert.Equal(t, "erin", table[3].Username)
	assert.Equal(t, domain.RoleViewer, table[3].Role)
}

func TestPermissionService_UserTable_UnknownWorkspaceIsEmpty(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	svc := newPermissionService(perms, users, workspaces, new(MockPermissionNotifier))

	ctx := context.Background()
	workspaces.On("Get", ctx, "nope").Return(nil, repo.ErrWorkspaceNotFound)

	table, err := svc.UserTable(ctx, "nope")

	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)
	perms.AssertNotCalled(t, "ListByWorkspace", mock.Anything, mock.Anything)
}

func TestPermissionService_Scope_ViewerIsComplement(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	svc := newPermissionService(perms, users, workspaces, new(MockPermissionNotifier))

	ctx := context.Background()
	perms.On("ListWorkspaceIDsByRole", ctx, "alice", domain.RoleAdmin).Return([]string{"ws-1"}, nil)
	perms.On("ListWorkspaceIDsByRole", ctx, "alice", domain.RoleEditor).Return([]string{"ws-2"}, nil)
	workspaces.On("ListIDsExcluding", ctx, []string{"ws-1", "ws-2"}).Return([]string{"ws-3"}, nil)

	scope, err := svc.Scope(ctx, "alice")

	require.NoError(t, err)
	assert.Equal(t, []string{"ws-1"}, scope.Admin)
	assert.Equal(t, []string{"ws-2"}, scope.Editor)
	assert.Equal(t, []string{"ws-3"}, scope.Viewer)
}

func TestPermissionService_Scope_EmptyBucketsAreNeverNil(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	svc := newPermissionService(perms, users, workspaces, new(MockPermissionNotifier))

	ctx := context.Background()
	perms.On("ListWorkspaceIDsByRole", ctx, "alice", domain.RoleAdmin).Return(nil, nil)
	perms.On("ListWorkspaceIDsByRole", ctx, "alice", domain.RoleEditor).Return(nil, nil)
	workspaces.On("ListIDsExcluding", ctx, mock.Anything).Return(nil, nil)

	scope, err := svc.Scope(ctx, "alice")

	require.NoError(t, err)
	assert.NotNil(t, scope.Admin)
	assert.NotNil(t, scope.Editor)
	assert.NotNil(t, scope.Viewer)
}

func TestPermissionService_Reconcile_AggregatesAllValidationProblems(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	svc := newPermissionService(perms, users, workspaces, new(MockPermissionNotifier))

	ctx := context.Background()
	workspaces.On("Get", ctx, "nope").Return(nil, repo.ErrWorkspaceNotFound)
	users.On("ExistingUsernames", ctx, mock.Anything).Return(map[string]bool{"ghost": false}, nil)

	desired := map[string]string{
		"ghost":   "admin",
		"mallory": "wizard",
	}

	_, err := svc.Reconcile(ctx, "nope", desired, "root")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Equal(t, "Object with this ID does not exist.", verr.Fields["workspaceId"])
	assert.Equal(t, "Object with this ID does not exist.", verr.Fields["ghost"])
	assert.Equal(t, "Value should be one of: admin, editor, viewer.", verr.Fields["mallory"])

	// Nothing may be applied when any entry is invalid.
	perms.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestPermissionService_Reconcile_AppliesDiffAndNotifies(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	notifier := new(MockPermissionNotifier)
	svc := newPermissionService(perms, users, workspaces, notifier)

	ctx := context.Background()
	ws := &domain.Workspace{ID: "ws-1", Name: "Platform"}
	tx := &fakeTx{}

	workspaces.On("Get", ctx, "ws-1").Return(ws, nil)
	users.On("ExistingUsernames", ctx, mock.Anything).Return(map[string]bool{
		"alice": true, "bob": true, "carol": true, "dave": true, "erin": true,
	}, nil)

	perms.On("BeginTx", ctx).Return(tx, nil)
	perms.On("ListByWorkspaceForUpdate", ctx, tx, "ws-1").Return([]domain.Permission{
		{WorkspaceID: "ws-1", Username: "alice", Role: domain.RoleAdmin},
		{WorkspaceID: "ws-1", Username: "bob", Role: domain.RoleEditor},
		{WorkspaceID: "ws-1", Username: "erin", Role: domain.RoleAdmin},
	}, nil)

	perms.On("UpdateRoles", ctx, tx, "ws-1", []string{"bob"}, domain.RoleAdmin, "root").Return(nil)
	perms.On("CreateRoles", ctx, tx, "ws-1", []string{"dave"}, domain.RoleAdmin, "root").Return(nil)
	perms.On("UpdateRoles", ctx, tx, "ws-1", []string{"alice"}, domain.RoleEditor, "root").Return(nil)
	perms.On("CreateRoles", ctx, tx, "ws-1", []string{"carol"}, domain.RoleEditor, "root").Return(nil)
	perms.On("DeleteRoles", ctx, tx, "ws-1", []string{"erin"}).Return(nil)

	expectedChanges := domain.ChangeList{
		{Username: "alice", OldRole: domain.RoleAdmin, NewRole: domain.RoleEditor},
		{Username: "bob", OldRole: domain.RoleEditor, NewRole: domain.RoleAdmin},
		{Username: "carol", OldRole: domain.RoleViewer, NewRole: domain.RoleEditor},
		{Username: "dave", OldRole: domain.RoleViewer, NewRole: domain.RoleAdmin},
		{Username: "erin", OldRole: domain.RoleAdmin, NewRole: domain.RoleViewer},
	}
	notifier.On("NotifyPermissionChange", ctx, "root", ws, expectedChanges).Return(nil)

	desired := map[string]string{
		"alice": "editor",
		"bob":   "admin",
		"carol": "editor",
		"dave":  "admin",
		"erin":  "viewer",
	}

	changes, err := svc.Reconcile(ctx, "ws-1", desired, "root")

	require.NoError(t, err)
	assert.Equal(t, expectedChanges, changes)
	assert.True(t, tx.committed)
	perms.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPermissionService_Reconcile_RepeatIsNoOp(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	notifier := new(MockPermissionNotifier)
	svc := newPermissionService(perms, users, workspaces, notifier)

	ctx := context.Background()
	ws := &domain.Workspace{ID: "ws-1", Name: "Platform"}
	tx := &fakeTx{}

	workspaces.On("Get", ctx, "ws-1").Return(ws, nil)
	users.On("ExistingUsernames", ctx, mock.Anything).Return(map[string]bool{"alice": true}, nil)
	perms.On("BeginTx", ctx).Return(tx, nil)
	perms.On("ListByWorkspaceForUpdate", ctx, tx, "ws-1").Return([]domain.Permission{
		{WorkspaceID: "ws-1", Username: "alice", Role: domain.RoleAdmin},
	}, nil)

	// Rows already holding the target role produce empty batches.
	perms.On("UpdateRoles", ctx, tx, "ws-1", mock.Anything, mock.Anything, "root").Return(nil)
	perms.On("CreateRoles", ctx, tx, "ws-1", mock.Anything, mock.Anything, "root").Return(nil)
	perms.On("DeleteRoles", ctx, tx, "ws-1", mock.Anything).Return(nil)

	changes, err := svc.Reconcile(ctx, "ws-1", map[string]string{"alice": "admin"}, "root")

	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.True(t, tx.committed)
	notifier.AssertNotCalled(t, "NotifyPermissionChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPermissionService_Reconcile_OmittedUsersAreDemoted(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	notifier := new(MockPermissionNotifier)
	svc := newPermissionService(perms, users, workspaces, notifier)

	ctx := context.Background()
	ws := &domain.Workspace{ID: "ws-1", Name: "Platform"}
	tx := &fakeTx{}

	workspaces.On("Get", ctx, "ws-1").Return(ws, nil)
	users.On("ExistingUsernames", ctx, mock.Anything).Return(map[string]bool{"bob": true}, nil)
	perms.On("BeginTx", ctx).Return(tx, nil)
	perms.On("ListByWorkspaceForUpdate", ctx, tx, "ws-1").Return([]domain.Permission{
		{WorkspaceID: "ws-1", Username: "alice", Role: domain.RoleEditor},
		{WorkspaceID: "ws-1", Username: "bob", Role: domain.RoleEditor},
	}, nil)

	perms.On("UpdateRoles", ctx, tx, "ws-1", mock.Anything, mock.Anything, "root").Return(nil)
	perms.On("CreateRoles", ctx, tx, "ws-1", mock.Anything, mock.Anything, "root").Return(nil)
	// Alice is absent from the map, bob is named viewer; both rows go away.
	perms.On("DeleteRoles", ctx, tx, "ws-1", []string{"alice", "bob"}).Return(nil)

	notifier.On("NotifyPermissionChange", ctx, "root", ws, mock.Anything).Return(nil)

	changes, err := svc.Reconcile(ctx, "ws-1", map[string]string{"bob": "viewer"}, "root")

	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ChangeEntry{Username: "alice", OldRole: domain.RoleEditor, NewRole: domain.RoleViewer}, changes[0])
	assert.Equal(t, domain.ChangeEntry{Username: "bob", OldRole: domain.RoleEditor, NewRole: domain.RoleViewer}, changes[1])
	perms.AssertExpectations(t)
}

func TestPermissionService_Reconcile_FanoutFailureDoesNotFail(t *testing.T) {
	perms := new(MockPermissionStore)
	users := new(MockUserStore)
	workspaces := new(MockWorkspaceStore)
	notifier := new(MockPermissionNotifier)
	svc := newPermissionService(perms, users, workspaces, notifier)

	ctx := context.Background()
	ws := &domain.Workspace{ID: "ws-1", Name: "Platform"}
	tx := &fakeTx{}

	workspaces.On("Get", ctx, "ws-1").Return(ws, nil)
	users.On("ExistingUsernames", ctx, mock.Anything).Return(map[string]bool{"carol": true}, nil)
	perms.On("BeginTx", ctx).Return(tx, nil)
	perms.On("ListByWorkspaceForUpdate", ctx, tx, "ws-1").Return([]domain.Permission{}, nil)
	perms.On("UpdateRoles", ctx, tx, "ws-1", mock.Anything, mock.Anything, "root").Return(nil)
	perms.On("CreateRoles", ctx, tx, "ws-1", mock.Anything, mock.Anything, "root").Return(nil)
	perms.On("DeleteRoles", ctx, tx, "ws-1", mock.Anything).Return(nil)

	notifier.On("NotifyPermissionChange", ctx, "root", ws, mock.Anything).Return(assert.AnError)

	changes, err := svc.Reconcile(ctx, "ws-1", map[string]string{"carol": "editor"}, "root")

	// The committed role change stands whatever happens to delivery.
	require.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.True(t, tx.committed)
}
