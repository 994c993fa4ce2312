package grpcserver

import (
	"ecom-admin/auth"
	"ecom-admin/interceptors"
	"ecom-admin/services"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds the gRPC server with logging and bearer interceptors, the authorization
// service and the standard health service. The returned health server is SERVING for both the
// overall server and the authorization service.
func NewServer(authz *services.AuthorizationService, tokens *auth.TokenService, logger *zap.Logger) (*grpc.Server, *health.Server) {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.ZapLoggingInterceptor(logger.Named("grpc")),
			interceptors.AuthInterceptor(PublicMethods...),
		),
	)

	RegisterAuthorizationServer(server, NewAuthorizationServer(authz, tokens, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(AuthorizationServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}
