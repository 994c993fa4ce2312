package services

import (
	"context"
	"time"

	"ecom-admin/auth"
	"ecom-admin/metrics"
	"ecom-admin/models"

	"go.uber.org/zap"
)

// AuthorizationService is the per-request entry point used by every transport: it verifies the
// bearer token, resolves the caller's permission and logs the internal failure kind. It never
// writes to the database.
type AuthorizationService struct {
	tokens   *auth.TokenService
	resolver *PermissionResolver
	dir      *Directory
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAuthorizationService wires the facade. m may be nil.
func NewAuthorizationService(tokens *auth.TokenService, resolver *PermissionResolver, dir *Directory, m *metrics.Metrics, logger *zap.Logger) *AuthorizationService {
	return &AuthorizationService{
		tokens:   tokens,
		resolver: resolver,
		dir:      dir,
		metrics:  m,
		logger:   logger.Named("authorization"),
	}
}

// VerifyToken checks a bearer token and returns its claims.
func (s *AuthorizationService) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("Token rejected", zap.Stringer("kind", auth.KindOf(err)), zap.Error(err))
		return nil, err
	}
	return claims, nil
}

// CheckAccess verifies token and authorizes its subject for (action, entity). On success the
// caller's admin user record is returned so handlers need no second lookup.
func (s *AuthorizationService) CheckAccess(ctx context.Context, token, action, entity string) (*models.AdminUser, error) {
	start := time.Now()

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.record(start, err, GrantPathNone)
		s.logger.Info("Authorization check rejected token",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Stringer("kind", auth.KindOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	decision, err := s.resolver.AuthorizeDetailed(ctx, claims.Subject, action, entity)
	if err != nil {
		s.record(start, err, GrantPathNone)
		fields := []zap.Field{
			zap.String("user_id", claims.Subject.String()),
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Stringer("kind", auth.KindOf(err)),
			zap.Error(err),
		}
		switch {
		case auth.IsCanceled(err):
			s.logger.Info("Authorization check canceled", fields...)
		case auth.CodeOf(err) == auth.CodeInternal:
			s.logger.Error("Authorization check failed", fields...)
		default:
			s.logger.Info("Authorization check denied", fields...)
		}
		return nil, err
	}

	s.record(start, nil, decision.Path)
	s.logger.Debug("Authorization check granted",
		zap.String("user_id", claims.Subject.String()),
		zap.String("action", action),
		zap.String("entity", entity),
		zap.String("path", string(decision.Path)),
	)
	return decision.User, nil
}

// GenerateToken logs an admin user in by email and password. Unknown emails and wrong
// passwords are both reported as InvalidCredentials.
func (s *AuthorizationService) GenerateToken(ctx context.Context, email, password string) (string, error) {
	user, err := s.dir.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		switch {
		case auth.KindOf(err) == auth.KindNotFound:
			return "", auth.InvalidCredentials()
		case auth.IsCanceled(err):
			s.logger.Info("Login canceled", zap.Error(err))
		default:
			s.logger.Error("Login lookup failed", zap.Error(err))
		}
		return "", err
	}

	if err := auth.CheckPassword(user.Password, password); err != nil {
		if auth.KindOf(err) != auth.KindInvalidCredentials {
			s.logger.Error("Password comparison failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		return "", auth.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("Could not generate token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "", err
	}
	s.logger.Info("Issued token", zap.String("user_id", user.ID.String()))
	return token, nil
}

func (s *AuthorizationService) record(start time.Time, err error, path GrantPath) {
	if s.metrics == nil {
		return
	}
	kind := "none"
	switch {
	case auth.IsCanceled(err):
		kind = "canceled"
	case err != nil:
		kind = auth.KindOf(err).String()
	}
	s.metrics.AuthorizationDecisions.WithLabelValues(string(auth.CodeOf(err)), kind, string(path)).Inc()
	s.metrics.AuthorizationDuration.Observe(time.Since(start).Seconds())
}
