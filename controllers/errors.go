package controllers

import (
	"net/http"

	"ecom-admin/auth"
	"ecom-admin/services"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

func writeJSON(response *restful.Response, status int, body interface{}) {
	_ = response.WriteHeaderAndJson(status, body, restful.MIME_JSON)
}

func writeBadRequest(response *restful.Response, message string) {
	writeJSON(response, http.StatusBadRequest, auth.ErrorResponse{Code: services.CodeInvalidArgument, Message: message})
}

// httpStatus extends auth.Code.HTTPStatus with the request problem codes.
func httpStatus(code auth.Code) int {
	switch code {
	case services.CodeInvalidArgument:
		return http.StatusBadRequest
	case services.CodeConflict:
		return http.StatusConflict
	default:
		return code.HTTPStatus()
	}
}

// handleServiceError translates service errors to HTTP responses. Internal causes are logged
// and never written to the client.
func handleServiceError(response *restful.Response, err error, logger *zap.Logger) {
	code, message := services.Outcome(err)
	switch {
	case auth.IsCanceled(err):
		logger.Info("Request canceled", zap.Error(err))
	case code == auth.CodeInternal:
		logger.Error("Unhandled service error", zap.Stringer("kind", auth.KindOf(err)), zap.Error(err))
	}
	writeJSON(response, httpStatus(code), auth.ErrorResponse{Code: code, Message: message})
}

// serviceErrorHandler keeps router failures (404, 405, 415) in the same JSON shape.
func serviceErrorHandler(serviceErr restful.ServiceError, _ *restful.Request, response *restful.Response) {
	code := auth.CodeInternal
	switch serviceErr.Code {
	case http.StatusNotFound:
		code = auth.CodeNotFound
	case http.StatusMethodNotAllowed, http.StatusUnsupportedMediaType, http.StatusNotAcceptable, http.StatusBadRequest:
		code = services.CodeInvalidArgument
	}
	writeJSON(response, serviceErr.Code, auth.ErrorResponse{Code: code, Message: serviceErr.Message})
}
