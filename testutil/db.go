// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"ecom-admin/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with foreign keys enabled and
// migrates every model into it.
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps concurrent lookups from tripping over shared-cache table locks.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Fixture inserts rows directly, bypassing services.
type Fixture struct {
	t  testing.TB
	db *gorm.DB
}

func NewFixture(t testing.TB, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

// AdminUser creates an admin user whose password is password.
func (f *Fixture) AdminUser(username, email, password string) *models.AdminUser {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(f.t, err)

	user := &models.AdminUser{
		Username:  username,
		FirstName: username + "-first",
		LastName:  username + "-last",
		Email:     email,
		Password:  string(hash),
	}
	require.NoError(f.t, f.db.Create(user).Error)
	return user
}

func (f *Fixture) Role(name string) *models.Role {
	f.t.Helper()
	role := &models.Role{Name: name}
	require.NoError(f.t, f.db.Create(role).Error)
	return role
}

func (f *Fixture) Action(name string) *models.Action {
	f.t.Helper()
	action := &models.Action{Name: name}
	require.NoError(f.t, f.db.Create(action).Error)
	return action
}

func (f *Fixture) Entity(name string) *models.Entity {
	f.t.Helper()
	entity := &models.Entity{Name: name}
	require.NoError(f.t, f.db.Create(entity).Error)
	return entity
}

func (f *Fixture) AssignRole(user *models.AdminUser, role *models.Role) {
	f.t.Helper()
	row := models.UserRole{AdminUserID: user.ID, RoleID: role.ID}
	require.NoError(f.t, f.db.Omit("AdminUser", "Role").Create(&row).Error)
}

func (f *Fixture) GrantRole(role *models.Role, action *models.Action, entity *models.Entity) {
	f.t.Helper()
	row := models.RolePermission{RoleID: role.ID, ActionID: action.ID, EntityID: entity.ID}
	require.NoError(f.t, f.db.Omit("Role", "Action", "Entity").Create(&row).Error)
}

func (f *Fixture) GrantUser(user *models.AdminUser, action *models.Action, entity *models.Entity) {
	f.t.Helper()
	row := models.UserPermission{AdminUserID: user.ID, ActionID: action.ID, EntityID: entity.ID}
	require.NoError(f.t, f.db.Omit("AdminUser", "Action", "Entity").Create(&row).Error)
}
