package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/logger"
)

var authStatus = map[string]int{
	backend.CodeHandleInUse:       http.StatusConflict,
	backend.CodeInvalidHandle:     http.StatusBadRequest,
	backend.CodeWeakPassword:      http.StatusBadRequest,
	backend.CodeWrongPassword:     http.StatusUnauthorized,
	backend.CodeInvalidCredential: http.StatusUnauthorized,
	backend.CodeUserNotFound:      http.StatusUnauthorized,
	backend.CodeUserDisabled:      http.StatusForbidden,
	backend.CodeTooManyRequests:   http.StatusTooManyRequests,
}

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var aerr *domain.AuthError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &aerr):
		status, ok := authStatus[aerr.Code]
		if !ok {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": aerr.Message, "code": aerr.Code})
	case errors.Is(err, domain.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
	default:
		l := logger.FromContext(c.Request.Context())
		l.Error().Err(err).Str("path", c.Request.URL.Path).Msg("auth request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.GenericAuthMessage})
	}
}
