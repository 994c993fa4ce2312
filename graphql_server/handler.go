package graphqlserver

import (
	"context"
	"net/http"

	"ecom-admin/auth"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"go.uber.org/zap"
)

type contextKey string

const bearerTokenKey contextKey = "bearer_token"

const maxRequestBytes = 1 << 20

// WithBearerToken stores the raw bearer token for resolvers.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey, token)
}

// BearerFromContext returns the token stored by WithBearerToken.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenKey).(string)
	return token, ok && token != ""
}

// Handler serves GraphQL over HTTP: GET with a query parameter, or POST with a JSON,
// application/graphql or form body. Results are written with 200; failures are reported in
// the errors array with their outcome code under extensions.code.
type Handler struct {
	graphql *handler.Handler
	logger  *zap.Logger
}

func NewHandler(schema graphql.Schema, logger *zap.Logger) *Handler {
	return &Handler{
		graphql: handler.New(&handler.Config{
			Schema:     &schema,
			Pretty:     false,
			GraphiQL:   false,
			Playground: false,
		}),
		logger: logger.Named("graphql"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	}

	ctx := r.Context()
	token, ok := auth.ExtractBearerToken(r.Header.Get("Authorization"))
	if ok {
		ctx = WithBearerToken(ctx, token)
	}
	h.logger.Debug("GraphQL request", zap.String("method", r.Method), zap.Bool("bearer", ok))

	h.graphql.ContextHandler(ctx, w, r)
}
