package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/resortstay/resort-booking/pkg/response"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
)

// Context keys for actor information
const (
	ContextKeyActorID = "actor_id"
	ContextKeyEmail   = "email"
	ContextKeyRole    = "role"
)

// APIKeyHeader is the header carrying the integration API key
const APIKeyHeader = "X-Api-Key"

// JWTConfig holds configuration for the staff JWT middleware
type JWTConfig struct {
	// Secret key for validating JWT tokens
	Secret string
	// SkipPaths is a list of paths that should skip JWT validation
	SkipPaths []string
}

// JWTAuth validates a bearer token and injects actor id and role into the
// request context. Staff endpoints (admin, resort manager) sit behind it.
func JWTAuth(config *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		tokenString := authHeader[len(bearerPrefix):]
		if tokenString == "" {
			abortUnauthorized(c, "Token is empty")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(config.Secret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, "Access token has expired")
				return
			}
			abortUnauthorized(c, "Invalid access token")
			return
		}
		if !token.Valid {
			abortUnauthorized(c, "Invalid access token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		actorID, ok := claims["actor_id"].(string)
		if !ok || actorID == "" {
			abortUnauthorized(c, "Missing actor_id in token")
			return
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		c.Set(ContextKeyActorID, actorID)
		c.Set(ContextKeyEmail, email)
		c.Set(ContextKeyRole, role)

		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated actor holds one of
// the given roles. Runs after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ContextKeyRole)
		if userRole == "" {
			abortUnauthorized(c, "Actor not authenticated")
			return
		}

		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		c.Abort()
		response.Forbidden(c, "Insufficient role")
	}
}

// APIKeyValidator resolves an API key to an actor id and role.
// Returns an error when the key is unknown or revoked.
type APIKeyValidator func(ctx context.Context, key string) (actorID, role string, err error)

// APIKeyAuth validates the X-Api-Key header for integration endpoints.
// A missing or unknown key yields 401 before any handler runs.
func APIKeyAuth(validate APIKeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			abortUnauthorized(c, "API key is required")
			return
		}

		actorID, role, err := validate(c.Request.Context(), key)
		if err != nil {
			abortUnauthorized(c, "Invalid API key")
			return
		}

		c.Set(ContextKeyActorID, actorID)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Abort()
	response.Unauthorized(c, message)
}
