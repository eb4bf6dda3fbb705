package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/infrastructure/auth"
	"github.com/feeledger/backend/internal/infrastructure/config"
	"github.com/feeledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                testJWTSecret,
		Issuer:                "test-issuer",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, input auth.GenerateTokenInput) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	return token
}

// signTestClaims signs arbitrary claims with the test secret
func signTestClaims(t *testing.T, claims *auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func serveWithAuth(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(AuthHeaderKey, authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ResolvesActor(t *testing.T) {
	svc := newTestJWTService()
	input := auth.GenerateTokenInput{
		UserID:     uuid.New(),
		Username:   "parent.one",
		Role:       fee.RoleParent,
		BranchID:   uuid.New(),
		StudentIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/api/v1/vouchers", func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		assert.Equal(t, input.UserID, actor.ID)
		assert.Equal(t, fee.RoleParent, actor.Role)
		assert.Equal(t, input.BranchID, actor.BranchID)
		assert.Equal(t, input.StudentIDs, actor.StudentIDs)

		assert.Equal(t, input.UserID.String(), GetJWTUserID(c))
		assert.Equal(t, input.BranchID.String(), GetJWTBranchID(c))
		require.NotNil(t, GetJWTClaims(c))
		assert.Equal(t, "parent.one", GetJWTClaims(c).Username)
		c.Status(http.StatusOK)
	})

	w := serveWithAuth(router, "/api/v1/vouchers", BearerPrefix+newTestToken(t, svc, input))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()
	now := time.Now()

	expired := signTestClaims(t, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UserID: uuid.NewString(),
		Role:   string(fee.RoleSuperAdmin),
	})
	unknownRole := signTestClaims(t, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID: uuid.NewString(),
		Role:   "accountant",
	})
	adminWithoutBranch := newTestToken(t, svc, auth.GenerateTokenInput{
		UserID: uuid.New(),
		Role:   fee.RoleBranchAdmin,
	})
	otherIssuer := auth.NewJWTService(config.JWTConfig{Secret: testJWTSecret, Issuer: "someone-else"})
	foreign := newTestToken(t, otherIssuer, auth.GenerateTokenInput{UserID: uuid.New(), Role: fee.RoleSuperAdmin})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"not a bearer", "Basic dXNlcjpwYXNz", dto.ErrCodeTokenInvalid},
		{"empty token", BearerPrefix, dto.ErrCodeTokenInvalid},
		{"garbage", BearerPrefix + "not.a.jwt", dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expired, dto.ErrCodeTokenExpired},
		{"unknown role", BearerPrefix + unknownRole, dto.ErrCodeTokenInvalid},
		{"branch admin without branch", BearerPrefix + adminWithoutBranch, dto.ErrCodeTokenInvalid},
		{"wrong issuer", BearerPrefix + foreign, dto.ErrCodeTokenInvalid},
	}

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/api/v1/vouchers", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveWithAuth(router, "/api/v1/vouchers", tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, decodeErrorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService()))
	for _, path := range []string{"/health", "/api/v1/system/ping", "/swagger/index.html"} {
		router.GET(path, func(c *gin.Context) {
			_, ok := GetActor(c)
			assert.False(t, ok)
			c.Status(http.StatusOK)
		})
	}

	for _, path := range []string{"/health", "/api/v1/system/ping", "/swagger/index.html"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, serveWithAuth(router, path, "").Code)
		})
	}
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	var captured error
	cfg := DefaultJWTConfig(newTestJWTService())
	cfg.OnError = func(c *gin.Context, err error) {
		captured = err
		c.AbortWithStatus(http.StatusTeapot)
	}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/api/v1/vouchers", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serveWithAuth(router, "/api/v1/vouchers", "")

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, errors.Is(captured, auth.ErrInvalidToken))
}

func TestRequireRole(t *testing.T) {
	withActor := func(actor *fee.Actor) gin.HandlerFunc {
		return func(c *gin.Context) {
			if actor != nil {
				c.Set(ActorKey, *actor)
			}
		}
	}

	tests := []struct {
		name   string
		actor  *fee.Actor
		status int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"parent is refused", &fee.Actor{ID: uuid.New(), Role: fee.RoleParent}, http.StatusForbidden},
		{"branch admin passes", &fee.Actor{ID: uuid.New(), Role: fee.RoleBranchAdmin, BranchID: uuid.New()}, http.StatusOK},
		{"super admin passes", &fee.Actor{ID: uuid.New(), Role: fee.RoleSuperAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(withActor(tt.actor), RequireRole(fee.RoleBranchAdmin, fee.RoleSuperAdmin))
			router.GET("/decide", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			assert.Equal(t, tt.status, serveWithAuth(router, "/decide", "").Code)
		})
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTBranchID(c))
	_, ok := GetActor(c)
	assert.False(t, ok)
}
