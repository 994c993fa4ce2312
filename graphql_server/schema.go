package graphqlserver

import (
	"context"
	"fmt"

	"ecom-admin/auth"
	"ecom-admin/models"
	"ecom-admin/repositories"
	"ecom-admin/services"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// Error is a resolver failure exposed with an outcome code under extensions.code.
type Error struct {
	Code    auth.Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

type resolver struct {
	authz      *services.AuthorizationService
	adminUsers services.AdminUserService
	users      services.UserService
	tokens     *auth.TokenService
	logger     *zap.Logger
}

// Dependencies of the schema.
type Dependencies struct {
	Authorization *services.AuthorizationService
	AdminUsers    services.AdminUserService
	Users         services.UserService
	Tokens        *auth.TokenService
	Logger        *zap.Logger
}

var adminUserType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AdminUser",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"username":  &graphql.Field{Type: graphql.String},
		"firstName": &graphql.Field{Type: graphql.String},
		"lastName":  &graphql.Field{Type: graphql.String},
		"email":     &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
		"updatedAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"username":  &graphql.Field{Type: graphql.String},
		"email":     &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
		"updatedAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var tokenType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Token",
	Fields: graphql.Fields{
		"token":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"expiresIn": &graphql.Field{Type: graphql.Int},
	},
})

var tokenInfoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "TokenInfo",
	Fields: graphql.Fields{
		"valid":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"subject":   &graphql.Field{Type: graphql.ID},
		"expiresAt": &graphql.Field{Type: graphql.DateTime},
	},
})

// NewSchema builds the query and mutation schema over the service layer.
func NewSchema(deps Dependencies) (graphql.Schema, error) {
	r := &resolver{
		authz:      deps.Authorization,
		adminUsers: deps.AdminUsers,
		users:      deps.Users,
		tokens:     deps.Tokens,
		logger:     deps.Logger.Named("graphql"),
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"verifyToken": &graphql.Field{
				Type: tokenInfoType,
				Args: graphql.FieldConfigArgument{
					"token": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.verifyToken,
			},
			"checkAccess": &graphql.Field{
				Type:        adminUserType,
				Description: "Authorizes the bearer of the request for action on entity",
				Args: graphql.FieldConfigArgument{
					"action": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"entity": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.checkAccess,
			},
			"adminUsers": &graphql.Field{
				Type: graphql.NewList(adminUserType),
				Args: graphql.FieldConfigArgument{
					"id":        &graphql.ArgumentConfig{Type: graphql.ID},
					"email":     &graphql.ArgumentConfig{Type: graphql.String},
					"username":  &graphql.ArgumentConfig{Type: graphql.String},
					"firstName": &graphql.ArgumentConfig{Type: graphql.String},
					"lastName":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.listAdminUsers,
			},
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.getUser,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"generateToken": &graphql.Field{
				Type: tokenType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.generateToken,
			},
			"createUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.createUser,
			},
			"updateUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"username": &graphql.ArgumentConfig{Type: graphql.String},
					"email":    &graphql.ArgumentConfig{Type: graphql.String},
					"password": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.updateUser,
			},
			"deleteUser": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deleteUser,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

// fail converts a service error into an Error, logging internal causes.
func (r *resolver) fail(err error) error {
	code, message := services.Outcome(err)
	switch {
	case auth.IsCanceled(err):
		r.logger.Info("Resolver canceled", zap.Error(err))
	case code == auth.CodeInternal:
		r.logger.Error("Resolver failed", zap.Stringer("kind", auth.KindOf(err)), zap.Error(err))
	}
	return &Error{Code: code, Message: message}
}

// require authorizes the bearer stored in ctx for (action, entity).
func (r *resolver) require(ctx context.Context, action, entity string) (*models.AdminUser, error) {
	token, ok := BearerFromContext(ctx)
	if !ok {
		return nil, &Error{Code: auth.CodeUnauthenticated, Message: "Authorization header required"}
	}
	user, err := r.authz.CheckAccess(ctx, token, action, entity)
	if err != nil {
		return nil, r.fail(err)
	}
	return user, nil
}

func (r *resolver) verifyToken(p graphql.ResolveParams) (interface{}, error) {
	claims, err := r.authz.VerifyToken(p.Context, p.Args["token"].(string))
	if err != nil {
		return nil, r.fail(err)
	}
	return map[string]interface{}{
		"valid":     true,
		"subject":   claims.Subject.String(),
		"expiresAt": claims.ExpiresAt,
	}, nil
}

func (r *resolver) checkAccess(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.require(p.Context, p.Args["action"].(string), p.Args["entity"].(string))
	if err != nil {
		return nil, err
	}
	return adminUserFields(user), nil
}

func (r *resolver) listAdminUsers(p graphql.ResolveParams) (interface{}, error) {
	if _, err := r.require(p.Context, "can_list", models.EntityDashboardUsers); err != nil {
		return nil, err
	}

	filter := repositories.AdminUserFilter{
		Email:     stringArg(p, "email"),
		Username:  stringArg(p, "username"),
		FirstName: stringArg(p, "firstName"),
		LastName:  stringArg(p, "lastName"),
	}
	if raw := stringArg(p, "id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		filter.ID = id
	}

	users, err := r.adminUsers.ListAdminUsers(p.Context, filter)
	if err != nil {
		return nil, r.fail(err)
	}
	result := make([]map[string]interface{}, len(users))
	for i := range users {
		result[i] = adminUserFields(&users[i])
	}
	return result, nil
}

func (r *resolver) getUser(p graphql.ResolveParams) (interface{}, error) {
	if _, err := r.require(p.Context, "can_read", models.EntityUserResource); err != nil {
		return nil, err
	}
	id, err := parseID(p.Args["id"].(string))
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetUser(p.Context, id)
	if err != nil {
		return nil, r.fail(err)
	}
	return userFields(user), nil
}

func (r *resolver) generateToken(p graphql.ResolveParams) (interface{}, error) {
	token, err := r.authz.GenerateToken(p.Context, p.Args["email"].(string), p.Args["password"].(string))
	if err != nil {
		return nil, r.fail(err)
	}
	return map[string]interface{}{
		"token":     token,
		"expiresIn": int(r.tokens.TTL().Seconds()),
	}, nil
}

func (r *resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.users.CreateUser(p.Context, &services.CreateUserInput{
		Username: p.Args["username"].(string),
		Email:    p.Args["email"].(string),
		Password: p.Args["password"].(string),
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return userFields(user), nil
}

func (r *resolver) updateUser(p graphql.ResolveParams) (interface{}, error) {
	if _, err := r.require(p.Context, "can_update", models.EntityUserResource); err != nil {
		return nil, err
	}
	id, err := parseID(p.Args["id"].(string))
	if err != nil {
		return nil, err
	}

	input := &services.UpdateUserInput{}
	if v, ok := p.Args["username"].(string); ok {
		input.Username = &v
	}
	if v, ok := p.Args["email"].(string); ok {
		input.Email = &v
	}
	if v, ok := p.Args["password"].(string); ok {
		input.Password = &v
	}

	user, err := r.users.UpdateUser(p.Context, id, input)
	if err != nil {
		return nil, r.fail(err)
	}
	return userFields(user), nil
}

func (r *resolver) deleteUser(p graphql.ResolveParams) (interface{}, error) {
	if _, err := r.require(p.Context, "can_delete", models.EntityUserResource); err != nil {
		return nil, err
	}
	id, err := parseID(p.Args["id"].(string))
	if err != nil {
		return nil, err
	}
	if err := r.users.DeleteUser(p.Context, id); err != nil {
		return nil, r.fail(err)
	}
	return true, nil
}

func stringArg(p graphql.ResolveParams, name string) string {
	v, _ := p.Args[name].(string)
	return v
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &Error{Code: services.CodeInvalidArgument, Message: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

func adminUserFields(u *models.AdminUser) map[string]interface{} {
	return map[string]interface{}{
		"id":        u.ID.String(),
		"username":  u.Username,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

func userFields(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":        u.ID.String(),
		"username":  u.Username,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}
