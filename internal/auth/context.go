package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sixchat/sixchat-backend/internal/chatclient"
)

const (
	CtxSessionToken = "session_token"
	CtxClient       = "chat_client"
)

// SessionToken returns the token set by SessionAuthMiddleware.
func SessionToken(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxSessionToken))
}

// Client returns the chat client bound to the request's session.
func Client(c *gin.Context) *chatclient.Client {
	v, ok := c.Get(CtxClient)
	if !ok {
		return nil
	}
	client, _ := v.(*chatclient.Client)
	return client
}
