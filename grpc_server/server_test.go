package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"ecom-admin/auth"
	"ecom-admin/database"
	"ecom-admin/repositories"
	"ecom-admin/services"
	"ecom-admin/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func setupGRPC(t *testing.T) *grpc.ClientConn {
	t.Helper()
	db := testutil.SetupTestDB(t)
	require.NoError(t, database.Seed(context.Background(), db, database.SeedOptions{Development: true}, zap.NewNop()))

	tokens, err := auth.NewTokenService([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	dir := services.NewDirectory(repositories.NewDirectoryRepository(db), repositories.NewAdminUserRepository(db))
	authz := services.NewAuthorizationService(tokens, services.NewPermissionResolver(dir), dir, nil, zap.NewNop())

	listener := bufconn.Listen(1 << 20)
	server, _ := NewServer(authz, tokens, zap.NewNop())
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func login(t *testing.T, client *AuthorizationClient, email, password string) string {
	t.Helper()
	resp, err := client.Login(context.Background(), mustStruct(t, map[string]interface{}{"email": email, "password": password}))
	require.NoError(t, err)
	assert.Equal(t, float64(3600), resp.GetFields()["expires_in"].GetNumberValue())
	return resp.GetFields()["token"].GetStringValue()
}

func withBearer(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestLogin(t *testing.T) {
	client := NewAuthorizationClient(setupGRPC(t))
	assert.NotEmpty(t, login(t, client, "admin1@example.com", "password123"))

	_, err := client.Login(context.Background(), mustStruct(t, map[string]interface{}{"email": "admin1@example.com", "password": "nope"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "Invalid credentials", status.Convert(err).Message())

	_, err = client.Login(context.Background(), mustStruct(t, map[string]interface{}{"email": "admin1@example.com"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestVerifyToken(t *testing.T) {
	client := NewAuthorizationClient(setupGRPC(t))
	token := login(t, client, "admin1@example.com", "password123")

	resp, err := client.VerifyToken(context.Background(), mustStruct(t, map[string]interface{}{"token": token}))
	require.NoError(t, err)
	assert.True(t, resp.GetFields()["valid"].GetBoolValue())
	assert.Equal(t, "223e4567-e89b-12d3-a456-426614174001", resp.GetFields()["subject"].GetStringValue())

	resp, err = client.VerifyToken(context.Background(), mustStruct(t, map[string]interface{}{"token": "garbage"}))
	require.NoError(t, err)
	assert.False(t, resp.GetFields()["valid"].GetBoolValue())
	assert.Equal(t, "Invalid token", resp.GetFields()["error"].GetStringValue())
}

func TestCheckAccess(t *testing.T) {
	client := NewAuthorizationClient(setupGRPC(t))
	admin1 := login(t, client, "admin1@example.com", "password123")
	admin2 := login(t, client, "admin2@example.com", "password456")

	tests := []struct {
		name     string
		ctx      context.Context
		action   string
		entity   string
		wantCode codes.Code
		wantUser string
	}{
		{"role grant", withBearer(admin1), "can_read", "/admin/dashboard", codes.OK, "admin1"},
		{"direct grant", withBearer(admin2), "can_upload", "/admin/dashboard", codes.OK, "admin2"},
		{"no grant", withBearer(admin2), "can_read", "Ressource::Invoice", codes.PermissionDenied, ""},
		{"unknown action", withBearer(admin1), "can_teleport", "/admin/dashboard", codes.NotFound, ""},
		{"missing metadata", context.Background(), "can_read", "/admin/dashboard", codes.Unauthenticated, ""},
		{"bad token", withBearer("garbage"), "can_read", "/admin/dashboard", codes.Unauthenticated, ""},
		{"missing entity", withBearer(admin1), "can_read", "", codes.InvalidArgument, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.CheckAccess(tt.ctx, mustStruct(t, map[string]interface{}{"action": tt.action, "entity": tt.entity}))
			require.Equal(t, tt.wantCode, status.Code(err), "error: %v", err)
			if tt.wantCode == codes.OK {
				assert.Equal(t, tt.wantUser, resp.GetFields()["username"].GetStringValue())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	client := healthpb.NewHealthClient(setupGRPC(t))

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: AuthorizationServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestStatusOfCanceledCalls(t *testing.T) {
	srv := &authorizationServer{logger: zap.NewNop()}
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"canceled", auth.DataAccess(context.Canceled), codes.Canceled},
		{"deadline", auth.DataAccess(context.DeadlineExceeded), codes.DeadlineExceeded},
		{"backend failure", auth.DataAccess(assert.AnError), codes.Internal},
		{"denied", auth.PermissionDenied(auth.ReasonNoRoles), codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(srv.toStatus(tt.err)))
		})
	}
}
