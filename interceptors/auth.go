package interceptors

import (
	"context"

	"ecom-admin/auth"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

// BearerTokenKey is the context key holding the raw bearer token of the call.
const BearerTokenKey contextKey = "bearer_token"

// AuthInterceptor returns a unary server interceptor that requires an "authorization: Bearer <token>"
// metadata entry on every method not listed in publicMethods. The token is only extracted here;
// handlers verify it through the authorization service.
func AuthInterceptor(publicMethods ...string) grpc.UnaryServerInterceptor {
	public := make(map[string]bool, len(publicMethods))
	for _, m := range publicMethods {
		public[m] = true
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if public[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "Authorization metadata required")
		}

		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "Authorization metadata required")
		}

		token, ok := auth.ExtractBearerToken(values[0])
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "Invalid authorization metadata format")
		}

		return handler(context.WithValue(ctx, BearerTokenKey, token), req)
	}
}

// BearerFromContext extracts the token stored by AuthInterceptor.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(BearerTokenKey).(string)
	return token, ok && token != ""
}
