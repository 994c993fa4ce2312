package grpcserver

import (
	"context"
	"errors"
	"time"

	"ecom-admin/auth"
	"ecom-admin/interceptors"
	"ecom-admin/models"
	"ecom-admin/services"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthorizationServiceName is the fully qualified gRPC service name.
const AuthorizationServiceName = "ecomadmin.authz.v1.AuthorizationService"

const (
	LoginMethod       = "/" + AuthorizationServiceName + "/Login"
	VerifyTokenMethod = "/" + AuthorizationServiceName + "/VerifyToken"
	CheckAccessMethod = "/" + AuthorizationServiceName + "/CheckAccess"
)

// PublicMethods lists the methods callable without a bearer token.
var PublicMethods = []string{
	LoginMethod,
	VerifyTokenMethod,
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/Watch",
}

// AuthorizationServer is the server API of the authorization service. Messages are
// google.protobuf.Struct values:
//
//	Login        {email, password}   -> {token, expires_in}
//	VerifyToken  {token}             -> {valid, subject, expires_at}
//	CheckAccess  {action, entity}    -> {id, username, first_name, last_name, email}
type AuthorizationServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckAccess(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type authorizationServer struct {
	authz  *services.AuthorizationService
	tokens *auth.TokenService
	logger *zap.Logger
}

func NewAuthorizationServer(authz *services.AuthorizationService, tokens *auth.TokenService, logger *zap.Logger) AuthorizationServer {
	return &authorizationServer{authz: authz, tokens: tokens, logger: logger.Named("grpc")}
}

func (s *authorizationServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password := stringField(req, "email"), stringField(req, "password")
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	token, err := s.authz.GenerateToken(ctx, email, password)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"token":      token,
		"expires_in": s.tokens.TTL().Seconds(),
	})
}

// VerifyToken reports an invalid token as {valid: false} rather than an error status.
func (s *authorizationServer) VerifyToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(req, "token")
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	claims, err := s.authz.VerifyToken(ctx, token)
	if err != nil {
		if auth.CodeOf(err) != auth.CodeUnauthenticated {
			return nil, s.toStatus(err)
		}
		return structpb.NewStruct(map[string]interface{}{"valid": false, "error": auth.PublicMessage(err)})
	}
	return structpb.NewStruct(map[string]interface{}{
		"valid":      true,
		"subject":    claims.Subject.String(),
		"expires_at": claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *authorizationServer) CheckAccess(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	action, entity := stringField(req, "action"), stringField(req, "entity")
	if action == "" || entity == "" {
		return nil, status.Error(codes.InvalidArgument, "action and entity are required")
	}

	token, ok := interceptors.BearerFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Authorization metadata required")
	}

	user, err := s.authz.CheckAccess(ctx, token, action, entity)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return adminUserStruct(user)
}

func (s *authorizationServer) toStatus(err error) error {
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	code := auth.CodeOf(err)
	if code == auth.CodeInternal {
		s.logger.Error("Unhandled service error", zap.Stringer("kind", auth.KindOf(err)), zap.Error(err))
	}
	return status.Error(code.GRPCCode(), auth.PublicMessage(err))
}

func adminUserStruct(user *models.AdminUser) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":         user.ID.String(),
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
	})
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[name].GetStringValue()
}

// RegisterAuthorizationServer registers srv on s.
func RegisterAuthorizationServer(s grpc.ServiceRegistrar, srv AuthorizationServer) {
	s.RegisterService(&AuthorizationServiceDesc, srv)
}

// AuthorizationServiceDesc describes the authorization service for grpc.Server.
var AuthorizationServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthorizationServiceName,
	HandlerType: (*AuthorizationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(LoginMethod, AuthorizationServer.Login)},
		{MethodName: "VerifyToken", Handler: unaryHandler(VerifyTokenMethod, AuthorizationServer.VerifyToken)},
		{MethodName: "CheckAccess", Handler: unaryHandler(CheckAccessMethod, AuthorizationServer.CheckAccess)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ecomadmin/authz/v1/authorization.proto",
}

type unaryMethod func(AuthorizationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthorizationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AuthorizationServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthorizationClient is the client API of the authorization service.
type AuthorizationClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthorizationClient(cc grpc.ClientConnInterface) *AuthorizationClient {
	return &AuthorizationClient{cc: cc}
}

func (c *AuthorizationClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoginMethod, in, opts...)
}

func (c *AuthorizationClient) VerifyToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, VerifyTokenMethod, in, opts...)
}

func (c *AuthorizationClient) CheckAccess(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CheckAccessMethod, in, opts...)
}

func (c *AuthorizationClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
