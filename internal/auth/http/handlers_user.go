package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sixchat/sixchat-backend/internal/auth"
	"github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
	"github.com/sixchat/sixchat-backend/internal/identity"
	"github.com/sixchat/sixchat-backend/internal/logger"
)

// SignUp creates an account for a six-digit ID and opens a session for it.
func (h *Handler) SignUp(c *gin.Context) {
	var body signUpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	client := h.hub.NewClient()
	_, err := client.SignUp(c.Request.Context(), domain.SignUpRequest{
		Number:   body.Number,
		Password: body.Password,
		Confirm:  body.Confirm,
	})
	if err != nil {
		client.Close()
		writeError(c, err)
		return
	}
	h.openSession(c, client, http.StatusCreated)
}

// SignIn opens a session for an existing six-digit ID.
func (h *Handler) SignIn(c *gin.Context) {
	var body signInBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	client := h.hub.NewClient()
	if _, err := client.SignIn(c.Request.Context(), domain.SignInRequest{
		Number:   body.Number,
		Password: body.Password,
	}); err != nil {
		client.Close()
		writeError(c, err)
		return
	}
	h.openSession(c, client, http.StatusOK)
}

// ExchangeToken opens a session for a Firebase ID token obtained by a client
// that signed in on its own.
func (h *Handler) ExchangeToken(c *gin.Context) {
	var body tokenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id_token is required"})
		return
	}

	id, err := h.verifier.VerifyIDToken(c.Request.Context(), body.IDToken)
	if err != nil {
		l := logger.FromContext(c.Request.Context())
		l.Info().Err(err).Msg("id token rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	if _, ok := identity.NumberFromHandle(id.Handle); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is not a six-digit ID account"})
		return
	}
	h.openSession(c, h.hub.Adopt(*id), http.StatusOK)
}

func (h *Handler) openSession(c *gin.Context, client *chatclient.Client, status int) {
	token, err := h.hub.Register(c.Request.Context(), client)
	if err != nil {
		client.Close()
		writeError(c, err)
		return
	}
	c.JSON(status, sessionResponse{
		Token:   token,
		UID:     client.Identity().UID,
		Session: client.State().Session,
	})
}

// SignOut ends the session and invalidates its token.
func (h *Handler) SignOut(c *gin.Context) {
	client := auth.Client(c)
	if err := client.SignOut(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	if err := h.hub.Remove(c.Request.Context(), auth.SessionToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SignOutEverywhere ends every session of the signed-in user.
func (h *Handler) SignOutEverywhere(c *gin.Context) {
	client := auth.Client(c)
	id := client.Identity()
	if id == nil {
		writeError(c, domain.ErrNotSignedIn)
		return
	}
	uid := id.UID

	if err := client.SignOut(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	revoked, err := h.hub.RemoveUser(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

// GetProfile returns the session's identity and profile fields.
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": auth.Client(c).State().Session})
}

// UpdateProfile sets the display name of the signed-in user.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var body displayNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := auth.Client(c).UpdateDisplayName(c.Request.Context(), body.DisplayName); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
