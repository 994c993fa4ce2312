package controllers

import (
	"net/http"
	"time"

	"ecom-admin/auth"
	"ecom-admin/models"
	"ecom-admin/repositories"
	"ecom-admin/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdminUserController struct {
	adminUserService services.AdminUserService
	authorizer       *Authorizer
	logger           *zap.Logger
}

func NewAdminUserController(adminUserService services.AdminUserService, authorizer *Authorizer, logger *zap.Logger) *AdminUserController {
	return &AdminUserController{adminUserService: adminUserService, authorizer: authorizer, logger: logger}
}

// AdminUserResponse Defines the response structure of admin user information
type AdminUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mapModelToAdminUserResponse(user *models.AdminUser) AdminUserResponse {
	if user == nil {
		return AdminUserResponse{}
	}
	return AdminUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// RegisterRoutes sets up the /admin/users routes. Every route requires a bearer token and a grant.
func (ctl *AdminUserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/admin/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"admin-users"}
	bearer := auth.BearerFilter()

	ws.Route(ws.GET("").Filter(bearer).Filter(ctl.authorizer.Require("can_list", models.EntityDashboardUsers)).To(ctl.listHandler).
		Doc("List admin users").
		Param(ws.QueryParameter("id", "Filter by identifier").DataType("string")).
		Param(ws.QueryParameter("email", "Filter by email").DataType("string")).
		Param(ws.QueryParameter("username", "Filter by username").DataType("string")).
		Param(ws.QueryParameter("first_name", "Filter by first name").DataType("string")).
		Param(ws.QueryParameter("last_name", "Filter by last name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]AdminUserResponse{}).
		Returns(http.StatusOK, "Admin users listed", []AdminUserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", auth.ErrorResponse{}).
		Returns(http.StatusForbidden, "Forbidden", auth.ErrorResponse{}))

	ws.Route(ws.POST("").Filter(bearer).Filter(ctl.authorizer.Require("can_create", models.EntityUserResource)).To(ctl.createHandler).
		Doc("Create an admin user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateAdminUserInput{}).
		Returns(http.StatusCreated, "Admin user created", AdminUserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", auth.ErrorResponse{}).
		Returns(http.StatusConflict, "Email already exists", auth.ErrorResponse{}))

	ws.Route(ws.GET("/{user-id}").Filter(bearer).Filter(ctl.authorizer.Require("can_read", models.EntityUserResource)).To(ctl.getHandler).
		Doc("Get an admin user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the admin user").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(AdminUserResponse{}).
		Returns(http.StatusOK, "Admin user found", AdminUserResponse{}).
		Returns(http.StatusNotFound, "Admin user not found", auth.ErrorResponse{}))

	ws.Route(ws.PUT("/{user-id}").Filter(bearer).Filter(ctl.authorizer.Require("can_update", models.EntityUserResource)).To(ctl.updateHandler).
		Doc("Update an admin user").
		Param(ws.PathParameter("user-id", "Identifier of the admin user").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.UpdateAdminUserInput{}).
		Returns(http.StatusOK, "Admin user updated", AdminUserResponse{}).
		Returns(http.StatusNotFound, "Admin user not found", auth.ErrorResponse{}).
		Returns(http.StatusConflict, "Email already exists", auth.ErrorResponse{}))

	ws.Route(ws.DELETE("/{user-id}").Filter(bearer).Filter(ctl.authorizer.Require("can_delete", models.EntityUserResource)).To(ctl.deleteHandler).
		Doc("Delete an admin user").
		Param(ws.PathParameter("user-id", "Identifier of the admin user").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Admin user deleted", nil).
		Returns(http.StatusNotFound, "Admin user not found", auth.ErrorResponse{}))
}

// listHandler (Handles GET /admin/users)
func (ctl *AdminUserController) listHandler(request *restful.Request, response *restful.Response) {
	filter := repositories.AdminUserFilter{
		Email:     request.QueryParameter("email"),
		Username:  request.QueryParameter("username"),
		FirstName: request.QueryParameter("first_name"),
		LastName:  request.QueryParameter("last_name"),
	}
	if raw := request.QueryParameter("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeBadRequest(response, "Invalid user ID format")
			return
		}
		filter.ID = id
	}

	users, err := ctl.adminUserService.ListAdminUsers(request.Request.Context(), filter)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}

	result := make([]AdminUserResponse, len(users))
	for i := range users {
		result[i] = mapModelToAdminUserResponse(&users[i])
	}
	writeJSON(response, http.StatusOK, result)
}

// createHandler (Handles POST /admin/users)
func (ctl *AdminUserController) createHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateAdminUserInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body")
		return
	}

	user, err := ctl.adminUserService.CreateAdminUser(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	if actor, ok := actingUser(request); ok {
		ctl.logger.Info("Admin user created", zap.String("by", actor.ID.String()), zap.String("user_id", user.ID.String()))
	}
	writeJSON(response, http.StatusCreated, mapModelToAdminUserResponse(user))
}

// getHandler (Handles GET /admin/users/{user-id})
func (ctl *AdminUserController) getHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathUserID(request, response)
	if !ok {
		return
	}

	user, err := ctl.adminUserService.GetAdminUser(request.Request.Context(), id)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusOK, mapModelToAdminUserResponse(user))
}

// updateHandler (Handles PUT /admin/users/{user-id})
func (ctl *AdminUserController) updateHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathUserID(request, response)
	if !ok {
		return
	}

	input := new(services.UpdateAdminUserInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body")
		return
	}

	user, err := ctl.adminUserService.UpdateAdminUser(request.Request.Context(), id, input)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusOK, mapModelToAdminUserResponse(user))
}

// deleteHandler (Handles DELETE /admin/users/{user-id})
func (ctl *AdminUserController) deleteHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathUserID(request, response)
	if !ok {
		return
	}

	if err := ctl.adminUserService.DeleteAdminUser(request.Request.Context(), id); err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	if actor, ok := actingUser(request); ok {
		ctl.logger.Info("Admin user deleted", zap.String("by", actor.ID.String()), zap.String("user_id", id.String()))
	}
	response.WriteHeader(http.StatusNoContent)
}

// pathUserID parses the user-id path parameter, answering 400 when it is not a UUID.
func pathUserID(request *restful.Request, response *restful.Response) (uuid.UUID, bool) {
	id, err := uuid.Parse(request.PathParameter("user-id"))
	if err != nil {
		writeBadRequest(response, "Invalid user ID format")
		return uuid.Nil, false
	}
	return id, true
}
