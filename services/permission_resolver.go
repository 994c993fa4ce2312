package services

import (
	"context"

	"ecom-admin/auth"
	"ecom-admin/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GrantPath tells which grant authorized a request.
type GrantPath string

const (
	GrantPathNone GrantPath = "none"
	GrantPathRole GrantPath = "role"
	GrantPathUser GrantPath = "user"
)

// Decision is the outcome of a successful authorization.
type Decision struct {
	User *models.AdminUser
	Path GrantPath
}

// PermissionResolver decides whether an admin user may perform an action on an entity.
// It holds no state of its own; every call is a sequence of reads through the Directory.
type PermissionResolver struct {
	directory *Directory
}

func NewPermissionResolver(directory *Directory) *PermissionResolver {
	return &PermissionResolver{directory: directory}
}

// Authorize returns the caller's record when a role grant or a direct user grant covers
// (actionName, entityName). Failures are auth.Error values of kind NotFound,
// PermissionDenied or DataAccess.
func (r *PermissionResolver) Authorize(ctx context.Context, userID uuid.UUID, actionName, entityName string) (*models.AdminUser, error) {
	decision, err := r.AuthorizeDetailed(ctx, userID, actionName, entityName)
	if err != nil {
		return nil, err
	}
	return decision.User, nil
}

// AuthorizeDetailed is Authorize that also reports the grant path used.
func (r *PermissionResolver) AuthorizeDetailed(ctx context.Context, userID uuid.UUID, actionName, entityName string) (*Decision, error) {
	var actionID, entityID uuid.UUID

	// Names resolve independently of each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := r.directory.FindActionIDByName(gctx, actionName)
		actionID = id
		return err
	})
	g.Go(func() error {
		id, err := r.directory.FindEntityIDByName(gctx, entityName)
		entityID = id
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	path, err := r.resolveGrant(ctx, userID, actionID, entityID)
	if err != nil {
		return nil, err
	}

	user, err := r.directory.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Decision{User: user, Path: path}, nil
}

// resolveGrant tries the role path first and falls through to the direct user path.
func (r *PermissionResolver) resolveGrant(ctx context.Context, userID, actionID, entityID uuid.UUID) (GrantPath, error) {
	roles, err := r.directory.FindUserRoles(ctx, userID)
	if err != nil {
		return GrantPathNone, err
	}

	if len(roles) > 0 {
		roleIDs := make([]uuid.UUID, 0, len(roles))
		for _, role := range roles {
			roleIDs = append(roleIDs, role.RoleID)
		}
		granted, err := r.directory.HasRoleGrant(ctx, roleIDs, actionID, entityID)
		if err != nil {
			return GrantPathNone, err
		}
		if granted {
			return GrantPathRole, nil
		}
	}

	granted, err := r.directory.HasUserGrant(ctx, userID, actionID, entityID)
	if err != nil {
		return GrantPathNone, err
	}
	if granted {
		return GrantPathUser, nil
	}

	if len(roles) == 0 {
		return GrantPathNone, auth.PermissionDenied(auth.ReasonNoRoles)
	}
	return GrantPathNone, auth.PermissionDenied(auth.ReasonNoMatchingPermission)
}
