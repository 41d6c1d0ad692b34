package services

import (
	"context"
	"testing"

	"github.com/janus-erp/janus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(s string) *string { return &s }

func TestRoleCreateValidation(t *testing.T) {
	svc := NewRoleService(setupTestDB(t), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "c1", "u1", RoleInput{Permissions: models.PermissionMap{"document": {"view"}}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Role name is required.", ve.Violations["role_name"])

	_, err = svc.Create(ctx, "c1", "u1", RoleInput{Name: sp("Clerk")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Permissions cannot be empty.", ve.Violations["permissions"])

	_, err = svc.Create(ctx, "c1", "u1", RoleInput{Name: sp("Clerk"), Permissions: models.PermissionMap{"payroll": {"view"}}})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Violations["permissions"], "payroll")

	_, err = svc.Create(ctx, "c1", "u1", RoleInput{Name: sp("Clerk"), Permissions: models.PermissionMap{"document": {"approve"}}})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Violations["permissions"], "approve")
}

func TestRoleCRUD(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewRoleService(gdb, nil)
	access := &recordingAccess{}
	svc.SetAccessCache(access)
	ctx := context.Background()

	clerk, err := svc.Create(ctx, "c1", "u1", RoleInput{
		Name:        sp(" Clerk "),
		Description: sp("Front desk"),
		Permissions: models.PermissionMap{"document": {"list", "view"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Clerk", clerk.Name)
	assert.False(t, clerk.IsSystem)

	_, err = svc.Create(ctx, "c1", "u1", RoleInput{Name: sp("clerk"), Permissions: models.PermissionMap{"document": {"view"}}})
	assert.ErrorIs(t, err, ErrRoleExists)
	_, err = svc.Create(ctx, "c2", "u2", RoleInput{Name: sp("Clerk"), Permissions: models.PermissionMap{"document": {"view"}}})
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "c2", clerk.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.Update(ctx, "c1", clerk.ID, RoleInput{Permissions: models.PermissionMap{"document": {"manage"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"document:manage"}, updated.Permissions.Grants())
	assert.Equal(t, "Front desk", updated.Description)
	assert.Equal(t, 1, access.all)

	_, err = svc.Update(ctx, "c1", clerk.ID, RoleInput{})
	assert.ErrorIs(t, err, ErrNoUpdate)

	roles, err := svc.List(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	require.NoError(t, assignRoles(gdb, "u9", clerk.ID))
	deleted, err := svc.Delete(ctx, "c1", clerk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clerk", deleted.Name)
	held, err := svc.RolesOf(ctx, "u9")
	require.NoError(t, err)
	assert.Empty(t, held)
	assert.Equal(t, 2, access.all)
}

func TestSuperAdminRoleIsProtected(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewRoleService(gdb, nil)
	ctx := context.Background()
	roles, err := createDefaultRoles(gdb, "c1", "u1")
	require.NoError(t, err)
	admin := roles[0]

	_, err = svc.Update(ctx, "c1", admin.ID, RoleInput{Name: sp("Boss")})
	assert.ErrorIs(t, err, ErrProtectedRole)
	_, err = svc.Update(ctx, "c1", admin.ID, RoleInput{Permissions: models.PermissionMap{"document": {"view"}}})
	assert.ErrorIs(t, err, ErrProtectedRole)
	_, err = svc.Delete(ctx, "c1", admin.ID)
	assert.ErrorIs(t, err, ErrProtectedRole)

	updated, err := svc.Update(ctx, "c1", admin.ID, RoleInput{Description: sp("Owners")})
	require.NoError(t, err)
	assert.Equal(t, "Owners", updated.Description)

	_, err = svc.Update(ctx, "c1", roles[1].ID, RoleInput{Name: sp(models.RoleSuperAdmin)})
	assert.ErrorIs(t, err, ErrRoleExists)
}
