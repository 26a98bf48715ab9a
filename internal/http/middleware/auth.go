package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rollup-backend/internal/http/response"
	"github.com/yungbote/rollup-backend/internal/platform/ctxutil"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth rejects requests without a valid bearer token and records the token subject.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := am.authService.Verify(extractBearer(c))
		if err != nil {
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		ctx := ctxutil.WithAuthData(c.Request.Context(), &ctxutil.AuthData{Subject: claims.Subject})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
