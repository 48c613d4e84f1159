package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sixchat/sixchat-backend/internal/auth"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
	"github.com/sixchat/sixchat-backend/internal/logger"
	"github.com/sixchat/sixchat-backend/internal/sessions"
)

// SessionResolver finds the live client of a session token.
type SessionResolver interface {
	Get(ctx context.Context, token string) (*chatclient.Client, error)
}

// SessionAuthMiddleware resolves the session token to its chat client.
func SessionAuthMiddleware(hub SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			c.Abort()
			return
		}

		client, err := hub.Get(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, sessions.ErrSessionNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			} else {
				l := logger.FromContext(c.Request.Context())
				l.Error().Err(err).Msg("session lookup failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
			}
			c.Abort()
			return
		}

		c.Set(auth.CtxSessionToken, token)
		c.Set(auth.CtxClient, client)
		c.Next()
	}
}

// extractToken reads the Bearer token, falling back to the token query
// parameter for EventSource clients that cannot set headers.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}
