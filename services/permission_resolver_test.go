package services

import (
	"context"
	"testing"
	"time"

	"ecom-admin/auth"
	"ecom-admin/models"
	"ecom-admin/repositories"
	"ecom-admin/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type resolverFixture struct {
	db       *gorm.DB
	resolver *PermissionResolver

	admins         *models.Role
	u1, u2, u3, u4 *models.AdminUser
	canRead        *models.Action
	canDownload    *models.Action
	dashboard      *models.Entity
	invoice        *models.Entity
}

func newDirectory(db *gorm.DB) *Directory {
	return NewDirectory(repositories.NewDirectoryRepository(db), repositories.NewAdminUserRepository(db))
}

// setupResolver builds:
//   - U1 in role Admins, which holds (can_read, /admin/dashboard)
//   - U2 with no roles and a direct grant (can_download, Ressource::Invoice)
//   - U3 with no roles and no grants
//   - U4 in role Admins with a direct grant (can_download, Ressource::Invoice)
func setupResolver(t *testing.T) *resolverFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixture(t, db)

	f := &resolverFixture{db: db, resolver: NewPermissionResolver(newDirectory(db))}
	f.admins = fx.Role("Admins")
	f.canRead = fx.Action("can_read")
	f.canDownload = fx.Action("can_download")
	f.dashboard = fx.Entity("/admin/dashboard")
	f.invoice = fx.Entity("Ressource::Invoice")
	fx.GrantRole(f.admins, f.canRead, f.dashboard)

	f.u1 = fx.AdminUser("u1", "u1@example.com", "password123")
	fx.AssignRole(f.u1, f.admins)

	f.u2 = fx.AdminUser("u2", "u2@example.com", "password123")
	fx.GrantUser(f.u2, f.canDownload, f.invoice)

	f.u3 = fx.AdminUser("u3", "u3@example.com", "password123")

	f.u4 = fx.AdminUser("u4", "u4@example.com", "password123")
	fx.AssignRole(f.u4, f.admins)
	fx.GrantUser(f.u4, f.canDownload, f.invoice)
	return f
}

func TestAuthorize(t *testing.T) {
	f := setupResolver(t)
	ctx := context.Background()

	t.Run("role grant", func(t *testing.T) {
		decision, err := f.resolver.AuthorizeDetailed(ctx, f.u1.ID, "can_read", "/admin/dashboard")
		require.NoError(t, err)
		assert.Equal(t, f.u1.ID, decision.User.ID)
		assert.Equal(t, "u1@example.com", decision.User.Email)
		assert.Equal(t, GrantPathRole, decision.Path)
	})

	t.Run("direct user grant without roles", func(t *testing.T) {
		decision, err := f.resolver.AuthorizeDetailed(ctx, f.u2.ID, "can_download", "Ressource::Invoice")
		require.NoError(t, err)
		assert.Equal(t, f.u2.ID, decision.User.ID)
		assert.Equal(t, GrantPathUser, decision.Path)
	})

	t.Run("no roles and no matching grant", func(t *testing.T) {
		user, err := f.resolver.Authorize(ctx, f.u2.ID, "can_read", "Ressource::Invoice")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, auth.PermissionDenied(auth.ReasonNoRoles))
		assert.Equal(t, auth.CodeForbidden, auth.CodeOf(err))
	})

	t.Run("roles without a matching grant", func(t *testing.T) {
		_, err := f.resolver.Authorize(ctx, f.u1.ID, "can_download", "Ressource::Invoice")
		assert.ErrorIs(t, err, auth.PermissionDenied(auth.ReasonNoMatchingPermission))
	})

	t.Run("falls through to the user path when roles do not match", func(t *testing.T) {
		decision, err := f.resolver.AuthorizeDetailed(ctx, f.u4.ID, "can_download", "Ressource::Invoice")
		require.NoError(t, err)
		assert.Equal(t, GrantPathUser, decision.Path)

		decision, err = f.resolver.AuthorizeDetailed(ctx, f.u4.ID, "can_read", "/admin/dashboard")
		require.NoError(t, err)
		assert.Equal(t, GrantPathRole, decision.Path)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := f.resolver.Authorize(ctx, f.u3.ID, "can_teleport", "/admin/dashboard")
		assert.ErrorIs(t, err, auth.NotFound(auth.ResourceAction))
		assert.Equal(t, auth.CodeNotFound, auth.CodeOf(err))
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := f.resolver.Authorize(ctx, f.u1.ID, "can_read", "/admin/nowhere")
		assert.ErrorIs(t, err, auth.NotFound(auth.ResourceEntity))
	})

	t.Run("names are case sensitive", func(t *testing.T) {
		_, err := f.resolver.Authorize(ctx, f.u1.ID, "CAN_READ", "/admin/dashboard")
		assert.Equal(t, auth.KindNotFound, auth.KindOf(err))
	})

	// The subject record is loaded only after a grant matches, so an id with no rows is
	// refused for having no roles instead of being reported missing.
	t.Run("unknown user", func(t *testing.T) {
		_, err := f.resolver.Authorize(ctx, uuid.New(), "can_read", "/admin/dashboard")
		assert.ErrorIs(t, err, auth.PermissionDenied(auth.ReasonNoRoles))
	})
}

func TestAuthorizeReflectsGrantChanges(t *testing.T) {
	f := setupResolver(t)
	ctx := context.Background()
	grants := repositories.NewGrantRepository(f.db)

	_, err := f.resolver.Authorize(ctx, f.u3.ID, "can_read", "/admin/dashboard")
	require.ErrorIs(t, err, auth.PermissionDenied(auth.ReasonNoRoles))

	require.NoError(t, grants.AssignRole(ctx, models.UserRole{AdminUserID: f.u3.ID, RoleID: f.admins.ID}))
	// Assigning twice is a no-op.
	require.NoError(t, grants.AssignRole(ctx, models.UserRole{AdminUserID: f.u3.ID, RoleID: f.admins.ID}))

	user, err := f.resolver.Authorize(ctx, f.u3.ID, "can_read", "/admin/dashboard")
	require.NoError(t, err)
	assert.Equal(t, f.u3.ID, user.ID)

	require.NoError(t, grants.RevokeRolePermission(ctx, models.RolePermission{
		RoleID: f.admins.ID, ActionID: f.canRead.ID, EntityID: f.dashboard.ID,
	}))
	_, err = f.resolver.Authorize(ctx, f.u3.ID, "can_read", "/admin/dashboard")
	assert.ErrorIs(t, err, auth.PermissionDenied(auth.ReasonNoMatchingPermission))
}

func TestGrantsRequireExistingRows(t *testing.T) {
	f := setupResolver(t)
	ctx := context.Background()
	grants := repositories.NewGrantRepository(f.db)

	err := grants.AssignRole(ctx, models.UserRole{AdminUserID: f.u3.ID, RoleID: uuid.New()})
	assert.Error(t, err, "unknown role must be rejected")

	err = grants.GrantRolePermission(ctx, models.RolePermission{RoleID: f.admins.ID, ActionID: uuid.New(), EntityID: f.dashboard.ID})
	assert.Error(t, err, "unknown action must be rejected")

	err = grants.GrantUserPermission(ctx, models.UserPermission{AdminUserID: uuid.New(), ActionID: f.canRead.ID, EntityID: f.dashboard.ID})
	assert.Error(t, err, "unknown user must be rejected")
}

func TestDeletingUserCascadesGrants(t *testing.T) {
	f := setupResolver(t)
	ctx := context.Background()

	deleted, err := repositories.NewAdminUserRepository(f.db).Delete(ctx, f.u4.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	var roles, perms int64
	require.NoError(t, f.db.Model(&models.UserRole{}).Where("admin_user_id = ?", f.u4.ID).Count(&roles).Error)
	require.NoError(t, f.db.Model(&models.UserPermission{}).Where("admin_user_id = ?", f.u4.ID).Count(&perms).Error)
	assert.Zero(t, roles)
	assert.Zero(t, perms)
}

func TestAuthorizeDataAccessFailure(t *testing.T) {
	t.Run("closed connection", func(t *testing.T) {
		f := setupResolver(t)
		sqlDB, err := f.db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		_, err = f.resolver.Authorize(context.Background(), f.u1.ID, "can_read", "/admin/dashboard")
		assert.Equal(t, auth.KindDataAccess, auth.KindOf(err))
		assert.Equal(t, auth.CodeInternal, auth.CodeOf(err))
	})

	t.Run("canceled context", func(t *testing.T) {
		f := setupResolver(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.resolver.Authorize(ctx, f.u1.ID, "can_read", "/admin/dashboard")
		require.Error(t, err)
		assert.Equal(t, auth.KindDataAccess, auth.KindOf(err))
		assert.Equal(t, auth.CodeInternal, auth.CodeOf(err))
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, auth.IsCanceled(err))
	})

	t.Run("expired deadline", func(t *testing.T) {
		f := setupResolver(t)
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		_, err := f.resolver.AuthorizeDetailed(ctx, f.u4.ID, "can_download", "Ressource::Invoice")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, auth.KindDataAccess, auth.KindOf(err))
	})

	t.Run("role query fails", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()
		mock.MatchExpectationsInOrder(false)

		db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)

		actionID, entityID := uuid.New(), uuid.New()
		mock.ExpectQuery("SELECT \\* FROM `admin_actions`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(actionID.String(), "can_read"))
		mock.ExpectQuery("SELECT \\* FROM `admin_entities`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(entityID.String(), "/admin/dashboard"))
		mock.ExpectQuery("SELECT \\* FROM `admin_users_roles`").
			WillReturnError(assert.AnError)

		resolver := NewPermissionResolver(newDirectory(db))
		_, err = resolver.Authorize(context.Background(), uuid.New(), "can_read", "/admin/dashboard")
		require.Error(t, err)
		assert.Equal(t, auth.KindDataAccess, auth.KindOf(err))
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
