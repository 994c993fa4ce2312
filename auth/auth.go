package auth

import (
	"strings"

	restful "github.com/emicklei/go-restful/v3"
)

// BearerTokenAttribute is the request attribute holding the raw bearer token set by BearerFilter.
const BearerTokenAttribute = "bearer_token"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>" header value.
func ExtractBearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// BearerFilter creates a go-restful FilterFunction that requires a bearer token.
// The token is only extracted here; verification happens in the authorization check.
func BearerFilter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		authHeader := req.HeaderParameter("Authorization")
		if authHeader == "" {
			_ = resp.WriteHeaderAndJson(CodeUnauthenticated.HTTPStatus(),
				ErrorResponse{Code: CodeUnauthenticated, Message: "Authorization header required"}, restful.MIME_JSON)
			return
		}

		token, ok := ExtractBearerToken(authHeader)
		if !ok {
			_ = resp.WriteHeaderAndJson(CodeUnauthenticated.HTTPStatus(),
				ErrorResponse{Code: CodeUnauthenticated, Message: "Invalid authorization header format"}, restful.MIME_JSON)
			return
		}

		req.SetAttribute(BearerTokenAttribute, token)
		chain.ProcessFilter(req, resp)
	}
}

// BearerToken returns the token stored by BearerFilter.
func BearerToken(req *restful.Request) (string, bool) {
	token, ok := req.Attribute(BearerTokenAttribute).(string)
	return token, ok && token != ""
}
