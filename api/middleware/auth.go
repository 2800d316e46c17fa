package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapechat/models"
)

// Auth returns token authentication middleware.
//
// Supports two header styles:
//
//	X-API-Key: <token>
//	Authorization: Bearer <token>
//
// The token doubles as the user identity: sessions and history are scoped to
// it. If tokens is empty, the middleware is a no-op and every request runs as
// the anonymous user.
func Auth(tokens []string) gin.HandlerFunc {
	if len(tokens) == 0 {
		return func(c *gin.Context) {
			c.Set("user_id", "anonymous")
			c.Next()
		}
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			tokenSet[t] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ChatResponse{
				Kind: models.KindError,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeUnauthorized,
					Message: "missing token: provide X-API-Key header or Authorization: Bearer <token>",
				},
			})
			return
		}

		if _, valid := tokenSet[token]; !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ChatResponse{
				Kind: models.KindError,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeUnauthorized,
					Message: "invalid token",
				},
			})
			return
		}

		c.Set("user_id", token)
		c.Next()
	}
}

// extractToken tries X-API-Key first, then Authorization: Bearer.
func extractToken(c *gin.Context) string {
	if token := c.GetHeader("X-API-Key"); token != "" {
		return token
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
