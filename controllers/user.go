package controllers

import (
	"net/http"
	"strconv"
	"time"

	"ecom-admin/auth"
	"ecom-admin/models"
	"ecom-admin/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserController serves storefront accounts: public signup plus admin-only management.
type UserController struct {
	userService services.UserService
	authorizer  *Authorizer
	logger      *zap.Logger
}

// Constructor, used to create a UserController instance
func NewUserController(userService services.UserService, authorizer *Authorizer, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, authorizer: authorizer, logger: logger}
}

// UserResponse Defines the response structure of user information
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaginatedUsersResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// --- Helper to map model to response ---
func mapModelToUserResponse(user *models.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// --- go-restful Route Definitions ---

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"users"}
	bearer := auth.BearerFilter()

	// --- Public Registration Route ---
	ws.Route(ws.POST("").To(ctl.createUserHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateUserInput{}).
		Returns(http.StatusCreated, "User created successfully", UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", auth.ErrorResponse{}).
		Returns(http.StatusConflict, "Email already exists", auth.ErrorResponse{}))

	// --- Routes requiring an admin grant on user resources ---
	ws.Route(ws.GET("/{user-id}").Filter(bearer).Filter(ctl.authorizer.Require("can_read", models.EntityUserResource)).To(ctl.getUserByIDHandler).
		Doc("Get user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "User found", UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", auth.ErrorResponse{}).
		Returns(http.StatusForbidden, "Forbidden", auth.ErrorResponse{}).
		Returns(http.StatusNotFound, "User not found", auth.ErrorResponse{}))

	ws.Route(ws.PUT("/{user-id}").Filter(bearer).Filter(ctl.authorizer.Require("can_update", models.EntityUserResource)).To(ctl.updateUserHandler).
		Doc("Update user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user to update").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.UpdateUserInput{}).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "User updated successfully", UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body or user ID", auth.ErrorResponse{}).
		Returns(http.StatusNotFound, "User not found", auth.ErrorResponse{}).
		Returns(http.StatusConflict, "Email conflict", auth.ErrorResponse{}))

	ws.Route(ws.GET("").Filter(bearer).Filter(ctl.authorizer.Require("can_list", models.EntityUserResource)).To(ctl.listUsersHandler).
		Doc("List users with pagination").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("page_size", "Users per page (default 10)").DataType("integer").DefaultValue("10")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(PaginatedUsersResponse{}).
		Returns(http.StatusOK, "Users listed successfully", PaginatedUsersResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", auth.ErrorResponse{}).
		Returns(http.StatusForbidden, "Forbidden", auth.ErrorResponse{}))

	ws.Route(ws.DELETE("/{user-id}").Filter(bearer).Filter(ctl.authorizer.Require("can_delete", models.EntityUserResource)).To(ctl.deleteUserHandler).
		Doc("Delete user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user to delete").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "User deleted successfully", nil).
		Returns(http.StatusNotFound, "User not found", auth.ErrorResponse{}))
}

// --- go-restful Handler Functions ---

// createUserHandler (Handles POST /users)
func (ctl *UserController) createUserHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateUserInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body")
		return
	}

	user, err := ctl.userService.CreateUser(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusCreated, mapModelToUserResponse(user))
}

// getUserByIDHandler (Handles GET /users/{user-id})
func (ctl *UserController) getUserByIDHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathUserID(request, response)
	if !ok {
		return
	}

	user, err := ctl.userService.GetUser(request.Request.Context(), id)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusOK, mapModelToUserResponse(user))
}

// updateUserHandler (Handles PUT /users/{user-id})
func (ctl *UserController) updateUserHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathUserID(request, response)
	if !ok {
		return
	}

	input := new(services.UpdateUserInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body")
		return
	}

	updatedUser, err := ctl.userService.UpdateUser(request.Request.Context(), id, input)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusOK, mapModelToUserResponse(updatedUser))
}

// listUsersHandler (Handles GET /users)
func (ctl *UserController) listUsersHandler(request *restful.Request, response *restful.Response) {
	page, err := strconv.Atoi(request.QueryParameter("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(request.QueryParameter("page_size"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	users, total, err := ctl.userService.ListUsers(request.Request.Context(), page, pageSize)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}

	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = mapModelToUserResponse(&users[i])
	}

	writeJSON(response, http.StatusOK, PaginatedUsersResponse{
		Users:    userResponses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// deleteUserHandler (Handles DELETE /users/{user-id})
func (ctl *UserController) deleteUserHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathUserID(request, response)
	if !ok {
		return
	}

	if err := ctl.userService.DeleteUser(request.Request.Context(), id); err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
