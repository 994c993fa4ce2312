package database

import (
	"context"
	"testing"

	"ecom-admin/auth"
	"ecom-admin/config"
	"ecom-admin/models"
	"ecom-admin/repositories"
	"ecom-admin/services"
	"ecom-admin/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedReferenceData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, SeedOptions{}, zap.NewNop()))
	// Seeding is idempotent.
	require.NoError(t, Seed(ctx, db, SeedOptions{}, zap.NewNop()))

	var roles, actions, entities, admins int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, db.Model(&models.Action{}).Count(&actions).Error)
	require.NoError(t, db.Model(&models.Entity{}).Count(&entities).Error)
	require.NoError(t, db.Model(&models.AdminUser{}).Count(&admins).Error)
	assert.EqualValues(t, 10, roles)
	assert.EqualValues(t, 7, actions)
	assert.EqualValues(t, 4, entities)
	assert.Zero(t, admins, "no accounts outside development")

	action, err := repositories.NewDirectoryRepository(db).FindActionByName(ctx, "can_download")
	require.NoError(t, err)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174106", action.ID.String())
}

func TestSeedDevelopment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, SeedOptions{Development: true}, zap.NewNop()))
	require.NoError(t, Seed(ctx, db, SeedOptions{Development: true}, zap.NewNop()))

	users := repositories.NewAdminUserRepository(db)
	dir := services.NewDirectory(repositories.NewDirectoryRepository(db), users)
	resolver := services.NewPermissionResolver(dir)

	admin1, err := users.FindByEmail(ctx, "admin1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "223e4567-e89b-12d3-a456-426614174001", admin1.ID.String())
	assert.NoError(t, auth.CheckPassword(admin1.Password, "password123"))

	admin2, err := users.FindByEmail(ctx, "admin2@example.com")
	require.NoError(t, err)

	// Every grant the HTTP and GraphQL surfaces check is held by the Admins role.
	guarded := []struct{ action, entity string }{
		{"can_list", models.EntityDashboardUsers},
		{"can_create", models.EntityUserResource},
		{"can_read", models.EntityUserResource},
		{"can_update", models.EntityUserResource},
		{"can_delete", models.EntityUserResource},
		{"can_list", models.EntityUserResource},
	}
	for _, g := range guarded {
		decision, err := resolver.AuthorizeDetailed(ctx, admin1.ID, g.action, g.entity)
		require.NoError(t, err, "%s on %s", g.action, g.entity)
		assert.Equal(t, services.GrantPathRole, decision.Path)
	}

	// admin2 is a Product Manager, a role with no grants; the dashboard is reachable through
	// direct grants only.
	decision, err := resolver.AuthorizeDetailed(ctx, admin2.ID, "can_upload", models.EntityDashboard)
	require.NoError(t, err)
	assert.Equal(t, services.GrantPathUser, decision.Path)

	_, err = resolver.Authorize(ctx, admin2.ID, "can_read", models.EntityInvoiceResource)
	assert.ErrorIs(t, err, auth.PermissionDenied(auth.ReasonNoMatchingPermission))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "sqlite", URL: "file::memory:"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}
