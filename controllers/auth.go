package controllers

import (
	"net/http"
	"strings"
	"time"

	"ecom-admin/auth"
	"ecom-admin/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// AuthController serves login, token verification and ad hoc authorization checks.
type AuthController struct {
	authz    *services.AuthorizationService
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewAuthController(authz *services.AuthorizationService, tokenTTL time.Duration, logger *zap.Logger) *AuthController {
	return &AuthController{authz: authz, tokenTTL: tokenTTL, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in" description:"Lifetime of the token in seconds"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CheckRequest struct {
	Action string `json:"action" description:"Action name, e.g. can_read"`
	Entity string `json:"entity" description:"Entity name, e.g. /admin/dashboard"`
}

// RegisterRoutes sets up the /admin/auth routes.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/admin/auth").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"auth"}

	ws.Route(ws.POST("/token").To(ctl.tokenHandler).
		Doc("Log in with email and password").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(LoginRequest{}).
		Returns(http.StatusOK, "Token issued", TokenResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", auth.ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", auth.ErrorResponse{}))

	ws.Route(ws.POST("/verify").To(ctl.verifyHandler).
		Doc("Verify a token").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(VerifyRequest{}).
		Returns(http.StatusOK, "Token is valid", VerifyResponse{}).
		Returns(http.StatusUnauthorized, "Token is invalid or expired", auth.ErrorResponse{}))

	ws.Route(ws.POST("/check").Filter(auth.BearerFilter()).To(ctl.checkHandler).
		Doc("Check whether the bearer may perform an action on an entity").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(CheckRequest{}).
		Returns(http.StatusOK, "Authorized", AdminUserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthenticated", auth.ErrorResponse{}).
		Returns(http.StatusForbidden, "Access denied", auth.ErrorResponse{}).
		Returns(http.StatusNotFound, "Unknown action or entity", auth.ErrorResponse{}))
}

// tokenHandler (Handles POST /admin/auth/token)
func (ctl *AuthController) tokenHandler(request *restful.Request, response *restful.Response) {
	input := new(LoginRequest)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body")
		return
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		writeBadRequest(response, "Email and password are required")
		return
	}

	token, err := ctl.authz.GenerateToken(request.Request.Context(), input.Email, input.Password)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusOK, TokenResponse{Token: token, ExpiresIn: int64(ctl.tokenTTL.Seconds())})
}

// verifyHandler (Handles POST /admin/auth/verify)
func (ctl *AuthController) verifyHandler(request *restful.Request, response *restful.Response) {
	input := new(VerifyRequest)
	if err := request.ReadEntity(input); err != nil || input.Token == "" {
		writeBadRequest(response, "Token is required")
		return
	}

	claims, err := ctl.authz.VerifyToken(request.Request.Context(), input.Token)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusOK, VerifyResponse{
		Valid:     true,
		Subject:   claims.Subject.String(),
		ExpiresAt: claims.ExpiresAt,
	})
}

// checkHandler (Handles POST /admin/auth/check)
func (ctl *AuthController) checkHandler(request *restful.Request, response *restful.Response) {
	input := new(CheckRequest)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body")
		return
	}
	if input.Action == "" || input.Entity == "" {
		writeBadRequest(response, "Action and entity are required")
		return
	}

	token, _ := auth.BearerToken(request)
	user, err := ctl.authz.CheckAccess(request.Request.Context(), token, input.Action, input.Entity)
	if err != nil {
		handleServiceError(response, err, ctl.logger)
		return
	}
	writeJSON(response, http.StatusOK, mapModelToAdminUserResponse(user))
}
