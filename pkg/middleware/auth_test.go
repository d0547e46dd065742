package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func staffRouter(roles ...string) *gin.Engine {
	router := gin.New()
	group := router.Group("/admin")
	group.Use(JWTAuth(&JWTConfig{Secret: testSecret}))
	if len(roles) > 0 {
		group.Use(RequireRole(roles...))
	}
	group.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"actor_id": c.GetString(ContextKeyActorID),
			"role":     c.GetString(ContextKeyRole),
		})
	})
	return router
}

func TestJWTAuth(t *testing.T) {
	validClaims := jwt.MapClaims{
		"actor_id": "user-1",
		"email":    "admin@example.com",
		"role":     "admin",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + signToken(t, testSecret, validClaims), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", validClaims), http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{
			"expired token",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"actor_id": "user-1",
				"role":     "admin",
				"exp":      time.Now().Add(-time.Hour).Unix(),
			}),
			http.StatusUnauthorized,
		},
		{
			"missing actor id",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"role": "admin",
				"exp":  time.Now().Add(time.Hour).Unix(),
			}),
			http.StatusUnauthorized,
		},
	}

	router := staffRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestJWTAuth_InjectsActorContext(t *testing.T) {
	router := staffRouter()
	token := signToken(t, testSecret, jwt.MapClaims{
		"actor_id": "user-42",
		"role":     "resort_manager",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-42")
	assert.Contains(t, rec.Body.String(), "resort_manager")
}

func TestRequireRole(t *testing.T) {
	router := staffRouter("admin", "resort_manager")

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"admin passes", "admin", http.StatusOK},
		{"manager passes", "resort_manager", http.StatusOK},
		{"guest rejected", "guest", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signToken(t, testSecret, jwt.MapClaims{
				"actor_id": "user-1",
				"role":     tt.role,
				"exp":      time.Now().Add(time.Hour).Unix(),
			})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	validate := func(ctx context.Context, key string) (string, string, error) {
		if key == "valid-key" {
			return "actor-1", "guest", nil
		}
		return "", "", errors.New("unknown key")
	}

	router := gin.New()
	router.Use(APIKeyAuth(validate))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor_id": c.GetString(ContextKeyActorID)})
	})

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"valid key", "valid-key", http.StatusOK},
		{"missing key", "", http.StatusUnauthorized},
		{"unknown key", "revoked-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "actor-1")
			}
		})
	}
}
