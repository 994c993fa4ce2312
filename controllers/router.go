package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ecom-admin/metrics"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RouteRegistrar is implemented by every controller.
type RouteRegistrar interface {
	RegisterRoutes(ws *restful.WebService)
}

// ContainerOptions collects what NewContainer wires together.
type ContainerOptions struct {
	Controllers    []RouteRegistrar
	DB             *gorm.DB
	Metrics        *metrics.Metrics // optional
	GraphQL        http.Handler     // optional, routed at /graphql
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewContainer builds the go-restful container serving every REST route, health, metrics,
// GraphQL and the OpenAPI document.
func NewContainer(opts ContainerOptions) *restful.Container {
	container := restful.NewContainer()
	container.ServiceErrorHandler(serviceErrorHandler)
	container.RecoverHandler(func(panicReason interface{}, w http.ResponseWriter) {
		opts.Logger.Error("Recovered from panic", zap.String("reason", fmt.Sprint(panicReason)))
		w.Header().Set("Content-Type", restful.MIME_JSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"INTERNAL_ERROR","message":"Internal server error"}`))
	})

	// Filters run in registration order: logging wraps everything else.
	container.Filter(RequestLogger(opts.Logger.Named("http")))
	if opts.Metrics != nil {
		container.Filter(Metrics(opts.Metrics))
	}
	if cors, ok := CORS(container, opts.AllowedOrigins); ok {
		container.Filter(cors)
	}
	container.Filter(Timeout(opts.RequestTimeout))

	for _, ctl := range opts.Controllers {
		ws := new(restful.WebService)
		ctl.RegisterRoutes(ws)
		container.Add(ws)
	}

	health := new(restful.WebService)
	health.Path("/healthz").Produces(restful.MIME_JSON)
	health.Route(health.GET("").To(healthHandler(opts.DB)).
		Doc("Liveness and database reachability").
		Returns(http.StatusOK, "Healthy", HealthResponse{}).
		Returns(http.StatusServiceUnavailable, "Database unreachable", HealthResponse{}))
	container.Add(health)

	if opts.GraphQL != nil {
		container.Add(graphQLService(opts.GraphQL))
	}

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}))

	if opts.Metrics != nil {
		container.Handle("/metrics", opts.Metrics.Handler())
	}
	return container
}

// graphQLService mounts h as ordinary routes so the container filters apply to it.
func graphQLService(h http.Handler) *restful.WebService {
	serve := func(req *restful.Request, resp *restful.Response) {
		h.ServeHTTP(resp, req.Request)
	}

	ws := new(restful.WebService)
	ws.Path("/graphql").Produces(restful.MIME_JSON)
	ws.Route(ws.GET("").To(serve).
		Doc("Execute a GraphQL query").
		Param(ws.QueryParameter("query", "GraphQL document").Required(true)).
		Param(ws.QueryParameter("variables", "JSON encoded variables")).
		Param(ws.QueryParameter("operationName", "Operation to run")))
	ws.Route(ws.POST("").To(serve).
		Consumes(restful.MIME_JSON, "application/graphql", "application/x-www-form-urlencoded").
		Doc("Execute a GraphQL request"))
	return ws
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func healthHandler(db *gorm.DB) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		ctx, cancel := context.WithTimeout(request.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			writeJSON(response, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "unreachable"})
			return
		}
		writeJSON(response, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
