package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/app/services"
	"github.com/sepehrad/unienroll/internal/pkg/auth"
)

// AuthMiddleware for authentication and authorization. Validating the
// signature is not enough: the token's identifier must still have a
// session row, so evicted and revoked tokens stop working immediately.
type AuthMiddleware struct {
	jwtService *auth.JWTService
	sessions   *services.SessionService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, sessions *services.SessionService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		sessions:   sessions,
	}
}

// JWTAuth middleware for JWT token validation and session liveness
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Authentication failed", "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Authentication failed", "Invalid token")
			return
		}

		live, err := m.sessions.IsLive(c.Request.Context(), claims.ID, models.TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.APIResponse{
				Error: dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Failed to check session"),
			})
			return
		}
		if !live {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Authentication failed", "Session is no longer active")
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("roleType", claims.RoleType)

		c.Next()
	}
}

// RoleRequired middleware to check if user has one of the required roles
func (m *AuthMiddleware) RoleRequired(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("roleType")
		if !exists {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "User role not found")
			return
		}

		roleStr, ok := role.(string)
		if ok {
			for _, required := range roles {
				if roleStr == string(required) {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation"),
		})
	}
}

// UserIDFromContext reads the authenticated user id set by JWTAuth.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, message, details string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.APIResponse{
		Error: dto.NewErrorDetail(code, message).WithDetails(details),
	})
}
