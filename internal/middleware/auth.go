package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/errordata"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/services"
)

const AccessTokenCookie = "access_token"

type AuthMiddleware struct {
	log          *logger.Logger
	authService  services.AuthService
	adminService services.AdminService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, adminService services.AdminService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, adminService: adminService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Rejected token", "error", err)
			errordata.Record(ctx, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. Callers without the admin role
// get a plain 404 so the route does not reveal itself.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := am.adminService.IsAdmin(c.Request.Context())
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
				return
			}
			errordata.Record(c.Request.Context(), err)
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		if !ok {
			c.String(http.StatusNotFound, "Not Found")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdminToken accepts the shared verification token from the
// x-admin-token header or a bearer Authorization header. An unset token
// disables the route.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("x-admin-token")
		if got == "" {
			auth := c.GetHeader("Authorization")
			if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
				got = strings.TrimSpace(auth[7:])
			}
		}
		if token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.String(http.StatusNotFound, "Not Found")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ExtractToken looks at the bearer header, then the access token cookie,
// then the token query parameter (browsers cannot set headers on a
// websocket upgrade).
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}
