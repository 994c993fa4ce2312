package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

var testSecret = []byte("test-secret")

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestNewTokenServiceRejectsEmptySecret(t *testing.T) {
	_, err := NewTokenService(nil, time.Hour)
	assert.Error(t, err)
}

func TestNewTokenServiceDefaultsTTL(t *testing.T) {
	svc, err := NewTokenService(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, 3600*time.Second, svc.TTL())
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)
	userID := uuid.New()

	token, err := svc.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.Equal(t, KindTokenExpired, KindOf(err))
}

func TestVerifyRechecksExpiryAgainstServiceClock(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	// The library still considers the token live; the service clock does not.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.Equal(t, KindTokenExpired, KindOf(err))
}

func TestVerifyWrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	other, err := NewTokenService([]byte("another-secret"), time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(token)
	require.Error(t, err)
	assert.Equal(t, KindTokenMalformed, KindOf(err))
}

func TestVerifyGarbage(t *testing.T) {
	svc := newTestTokenService(t)
	_, err := svc.Verify("not.a.token")
	assert.Equal(t, KindTokenMalformed, KindOf(err))
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	svc := newTestTokenService(t)
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Equal(t, KindTokenMalformed, KindOf(err))
}

func TestVerifyRequiresExpiry(t *testing.T) {
	svc := newTestTokenService(t)
	claims := jwt.RegisteredClaims{Subject: uuid.NewString()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Equal(t, KindTokenMalformed, KindOf(err))
}

func TestVerifyRequiresUUIDSubject(t *testing.T) {
	svc := newTestTokenService(t)
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Equal(t, KindTokenMalformed, KindOf(err))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"nil", nil, CodeOK},
		{"malformed", TokenMalformed(nil), CodeUnauthenticated},
		{"expired", TokenExpired(), CodeUnauthenticated},
		{"credentials", InvalidCredentials(), CodeUnauthenticated},
		{"denied", PermissionDenied(ReasonNoRoles), CodeForbidden},
		{"not found", NotFound(ResourceAction), CodeNotFound},
		{"data access", DataAccess(errors.New("connection refused")), CodeInternal},
		{"untyped", errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
		})
	}
}

func TestErrorMatching(t *testing.T) {
	err := NotFound(ResourceEntity)
	assert.ErrorIs(t, err, NotFound(ResourceEntity))
	assert.ErrorIs(t, err, &Error{Kind: KindNotFound})
	assert.NotErrorIs(t, err, NotFound(ResourceAction))

	cause := errors.New("pool exhausted")
	wrapped := DataAccess(cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindDataAccess, KindOf(wrapped))
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := DataAccess(errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.NotEqual(t, PublicMessage(TokenExpired()), PublicMessage(TokenMalformed(nil)))
}

func TestCodeTransportMapping(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, CodeUnauthenticated.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, CodeForbidden.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeInternal.HTTPStatus())
	assert.Equal(t, codes.PermissionDenied, CodeForbidden.GRPCCode())
	assert.Equal(t, codes.Unauthenticated, CodeUnauthenticated.GRPCCode())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "password123"))
	assert.Equal(t, KindInvalidCredentials, KindOf(CheckPassword(hash, "wrong")))
	assert.Equal(t, KindInvalidCredentials, KindOf(CheckPassword("plain", "plain")))
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := ExtractBearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = ExtractBearerToken("abc.def.ghi")
	assert.False(t, ok)
	_, ok = ExtractBearerToken("Basic dXNlcjpwYXNz")
	assert.False(t, ok)
}

func TestBearerFilter(t *testing.T) {
	container := restful.NewContainer()
	ws := new(restful.WebService)
	ws.Route(ws.GET("/protected").Filter(BearerFilter()).To(func(req *restful.Request, resp *restful.Response) {
		token, ok := BearerToken(req)
		assert.True(t, ok)
		_, _ = resp.Write([]byte(token))
	}))
	container.Add(ws)

	t.Run("No token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		container.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header required")
	})

	t.Run("Invalid token format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "InvalidTokenFormat")
		w := httptest.NewRecorder()
		container.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid authorization header format")
	})

	t.Run("Bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()
		container.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc", w.Body.String())
	})
}
