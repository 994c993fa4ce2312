package controllers

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"ecom-admin/auth"
	"ecom-admin/metrics"
	"ecom-admin/models"
	"ecom-admin/services"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// AdminUserAttribute is the request attribute holding the *models.AdminUser authorized by Require.
const AdminUserAttribute = "admin_user"

// Authorizer guards routes with an (action, entity) authorization check.
type Authorizer struct {
	authz  *services.AuthorizationService
	logger *zap.Logger
}

func NewAuthorizer(authz *services.AuthorizationService, logger *zap.Logger) *Authorizer {
	return &Authorizer{authz: authz, logger: logger}
}

// Require returns a filter that authorizes the bearer of the request for (action, entity).
// It must run after auth.BearerFilter.
func (a *Authorizer) Require(action, entity string) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		token, ok := auth.BearerToken(req)
		if !ok {
			writeJSON(resp, http.StatusUnauthorized, auth.ErrorResponse{Code: auth.CodeUnauthenticated, Message: "Authorization header required"})
			return
		}

		user, err := a.authz.CheckAccess(req.Request.Context(), token, action, entity)
		if err != nil {
			code := auth.CodeOf(err)
			writeJSON(resp, code.HTTPStatus(), auth.ErrorResponse{Code: code, Message: auth.PublicMessage(err)})
			return
		}

		req.SetAttribute(AdminUserAttribute, user)
		chain.ProcessFilter(req, resp)
	}
}

// actingUser returns the admin user set by Require.
func actingUser(req *restful.Request) (*models.AdminUser, bool) {
	user, ok := req.Attribute(AdminUserAttribute).(*models.AdminUser)
	return user, ok && user != nil
}

// RequestLogger logs every request once it has been handled.
func RequestLogger(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		// Log after request processing is completed
		logger.Info("Request",
			zap.String("client_ip", clientIP(req.Request)),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}

// Timeout bounds the request context so cancellation reaches in-flight queries.
func Timeout(d time.Duration) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		if d <= 0 {
			chain.ProcessFilter(req, resp)
			return
		}
		ctx, cancel := context.WithTimeout(req.Request.Context(), d)
		defer cancel()
		req.Request = req.Request.WithContext(ctx)
		chain.ProcessFilter(req, resp)
	}
}

// Metrics counts requests by method, route template and status.
func Metrics(m *metrics.Metrics) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		route := req.SelectedRoutePath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(req.Request.Method, route, strconv.Itoa(resp.StatusCode())).Inc()
		m.HTTPRequestDuration.WithLabelValues(req.Request.Method, route).Observe(time.Since(startTime).Seconds())
	}
}

// CORS allows the configured origins only. With no origins no CORS headers are sent at all.
func CORS(container *restful.Container, allowedOrigins []string) (restful.FilterFunction, bool) {
	if len(allowedOrigins) == 0 {
		return nil, false
	}
	cors := restful.CrossOriginResourceSharing{
		AllowedDomains: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Accept", "Content-Type"},
		CookiesAllowed: false,
		MaxAge:         3600,
		Container:      container,
	}
	return cors.Filter, true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
