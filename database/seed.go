package database

import (
	"context"
	"errors"
	"fmt"

	"ecom-admin/auth"
	"ecom-admin/models"
	"ecom-admin/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reference data shared by every environment. IDs are fixed so deployments agree on them.
var (
	seedRoles = []models.Role{
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"), Name: "Admins", Description: "Full access to the back office"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174001"), Name: "Product Managers", Description: "Manage the product catalog"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174002"), Name: "Order Processing", Description: "Process and fulfil orders"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174003"), Name: "Customer Support", Description: "Handle customer requests"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174004"), Name: "Marketing", Description: "Run campaigns and promotions"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174005"), Name: "Inventory Managers", Description: "Track and restock inventory"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174006"), Name: "Sales", Description: "Follow up on sales"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174007"), Name: "Finance", Description: "Invoices and payments"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174008"), Name: "Logistics", Description: "Shipping and delivery"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174009"), Name: "Developers", Description: "Technical maintenance"},
	}

	seedActions = []models.Action{
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174100"), Name: "can_create"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174101"), Name: "can_read"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174102"), Name: "can_update"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174103"), Name: "can_delete"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174104"), Name: "can_list"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174105"), Name: "can_upload"},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174106"), Name: "can_download"},
	}

	seedEntities = []models.Entity{
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174110"), Name: models.EntityDashboard},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174111"), Name: models.EntityDashboardUsers},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174112"), Name: models.EntityUserResource},
		{ID: uuid.MustParse("123e4567-e89b-12d3-a456-426614174113"), Name: models.EntityInvoiceResource},
	}
)

// Development-only accounts.
var devAdminUsers = []struct {
	User     models.AdminUser
	Password string
	Role     string
}{
	{
		User: models.AdminUser{
			ID:        uuid.MustParse("223e4567-e89b-12d3-a456-426614174001"),
			Username:  "admin1",
			FirstName: "AdminFirst1",
			LastName:  "AdminLast1",
			Email:     "admin1@example.com",
		},
		Password: "password123",
		Role:     "Admins",
	},
	{
		User: models.AdminUser{
			ID:        uuid.MustParse("223e4567-e89b-12d3-a456-426614174002"),
			Username:  "admin2",
			FirstName: "AdminFirst2",
			LastName:  "AdminLast2",
			Email:     "admin2@example.com",
		},
		Password: "password456",
		Role:     "Product Managers",
	},
}

// SeedOptions controls what Seed inserts beyond reference data.
type SeedOptions struct {
	// Development adds the admin1/admin2 accounts and their grants.
	Development bool
}

// Seed inserts reference roles, actions and entities, and development accounts when asked.
// Existing rows are left alone, so Seed may run at every start.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions, log *zap.Logger) error {
	log = log.Named("seed")

	for _, row := range seedRoles {
		row := row
		if err := createIfMissing(ctx, db, &models.Role{}, &row, row.Name); err != nil {
			return fmt.Errorf("seed role %s: %w", row.Name, err)
		}
	}
	for _, row := range seedActions {
		row := row
		if err := createIfMissing(ctx, db, &models.Action{}, &row, row.Name); err != nil {
			return fmt.Errorf("seed action %s: %w", row.Name, err)
		}
	}
	for _, row := range seedEntities {
		row := row
		if err := createIfMissing(ctx, db, &models.Entity{}, &row, row.Name); err != nil {
			return fmt.Errorf("seed entity %s: %w", row.Name, err)
		}
	}
	log.Info("Seeded reference data",
		zap.Int("roles", len(seedRoles)),
		zap.Int("actions", len(seedActions)),
		zap.Int("entities", len(seedEntities)),
	)

	if !opts.Development {
		return nil
	}
	return seedDevelopment(ctx, db, log)
}

// createIfMissing inserts row unless a row with the same name exists. dest receives the lookup.
func createIfMissing(ctx context.Context, db *gorm.DB, dest, row interface{}, name string) error {
	err := db.WithContext(ctx).Where("name = ?", name).First(dest).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.WithContext(ctx).Create(row).Error
}

func seedDevelopment(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	grants := repositories.NewGrantRepository(db)
	directory := repositories.NewDirectoryRepository(db)

	dashboard, err := directory.FindEntityByName(ctx, models.EntityDashboard)
	if err != nil {
		return fmt.Errorf("seed: find dashboard entity: %w", err)
	}
	adminEntities := []*models.Entity{dashboard}
	for _, name := range []string{models.EntityDashboardUsers, models.EntityUserResource} {
		entity, err := directory.FindEntityByName(ctx, name)
		if err != nil {
			return fmt.Errorf("seed: find entity %s: %w", name, err)
		}
		adminEntities = append(adminEntities, entity)
	}
	admins, err := directory.FindRoleByName(ctx, "Admins")
	if err != nil {
		return fmt.Errorf("seed: find Admins role: %w", err)
	}

	userIDs := make(map[string]uuid.UUID, len(devAdminUsers))
	for _, dev := range devAdminUsers {
		user := dev.User
		var existing models.AdminUser
		err := db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
		switch {
		case err == nil:
			user = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			hash, err := auth.HashPassword(dev.Password)
			if err != nil {
				return err
			}
			user.Password = hash
			if err := db.WithContext(ctx).Create(&user).Error; err != nil {
				return fmt.Errorf("seed admin user %s: %w", user.Username, err)
			}
			log.Info("Seeded admin user", zap.String("username", user.Username))
		default:
			return err
		}

		userIDs[user.Username] = user.ID

		role, err := directory.FindRoleByName(ctx, dev.Role)
		if err != nil {
			return fmt.Errorf("seed: find role %s: %w", dev.Role, err)
		}
		if err := grants.AssignRole(ctx, models.UserRole{AdminUserID: user.ID, RoleID: role.ID}); err != nil {
			return fmt.Errorf("seed: assign %s to %s: %w", dev.Role, user.Username, err)
		}
	}

	// Admins hold every action on the back office pages through their role; admin2 holds the
	// dashboard actions directly.
	admin2 := userIDs["admin2"]
	for _, action := range seedActions {
		a, err := directory.FindActionByName(ctx, action.Name)
		if err != nil {
			return fmt.Errorf("seed: find action %s: %w", action.Name, err)
		}
		for _, entity := range adminEntities {
			grant := models.RolePermission{RoleID: admins.ID, ActionID: a.ID, EntityID: entity.ID}
			if err := grants.GrantRolePermission(ctx, grant); err != nil {
				return fmt.Errorf("seed: grant %s on %s to Admins: %w", action.Name, entity.Name, err)
			}
		}
		if err := grants.GrantUserPermission(ctx, models.UserPermission{AdminUserID: admin2, ActionID: a.ID, EntityID: dashboard.ID}); err != nil {
			return fmt.Errorf("seed: grant %s to admin2: %w", action.Name, err)
		}
	}
	log.Warn("Seeded development admin accounts; never enable in production")
	return nil
}
