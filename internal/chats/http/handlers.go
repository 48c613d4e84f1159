package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sixchat/sixchat-backend/internal/auth"
	authdomain "github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
	"github.com/sixchat/sixchat-backend/internal/chats/domain"
	"github.com/sixchat/sixchat-backend/internal/logger"
)

// GetState returns everything the session's client currently shows.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, auth.Client(c).State())
}

// ListConversations returns the live conversation list, most recent first.
func (h *Handler) ListConversations(c *gin.Context) {
	st := auth.Client(c).State()
	c.JSON(http.StatusOK, conversationsResponse{
		Conversations: viewsFor(st),
		Active:        st.Active,
		Pending:       st.Pending,
		Error:         st.ConversationsErr,
	})
}

func viewsFor(st chatclient.State) []conversationView {
	uid := st.Session.UID()
	views := make([]conversationView, 0, len(st.Conversations))
	for _, conv := range st.Conversations {
		views = append(views, conversationView{Conversation: conv, PeerNumber: conv.PeerNumber(uid)})
	}
	return views
}

// StartConversation opens the conversation with a six-digit ID.
func (h *Handler) StartConversation(c *gin.Context) {
	var body startBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := auth.Client(c).StartConversation(c.Request.Context(), body.Target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ContactReserved opens the conversation with the reserved contact ID.
func (h *Handler) ContactReserved(c *gin.Context) {
	res, err := auth.Client(c).ContactReserved(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SelectConversation makes a conversation from the list active.
func (h *Handler) SelectConversation(c *gin.Context) {
	var body selectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := auth.Client(c).Select(body.ConversationID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMessages returns the active conversation's messages, oldest first.
func (h *Handler) ListMessages(c *gin.Context) {
	st := auth.Client(c).State()
	c.JSON(http.StatusOK, messagesResponse{
		ConversationID: st.Active,
		Messages:       st.Messages,
		Error:          st.MessagesErr,
	})
}

// SendActive posts a message to the active conversation.
func (h *Handler) SendActive(c *gin.Context) {
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := auth.Client(c).Send(c.Request.Context(), body.Text)
	writeSent(c, id, err)
}

// SendTo posts a message to the conversation named in the path.
func (h *Handler) SendTo(c *gin.Context) {
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := auth.Client(c).SendTo(c.Request.Context(), c.Param("id"), body.Text)
	writeSent(c, id, err)
}

// writeSent reports a send. Blank text is accepted without a write, and a
// message whose summary update failed is still reported as stored.
func writeSent(c *gin.Context, id string, err error) {
	switch {
	case err != nil && id != "":
		c.JSON(http.StatusAccepted, gin.H{"id": id, "warning": "message stored but conversation summary not updated"})
	case err != nil:
		writeError(c, err)
	case id == "":
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidTarget, http.StatusBadRequest},
	{domain.ErrSelfTarget, http.StatusBadRequest},
	{domain.ErrInvalidConversation, http.StatusBadRequest},
	{domain.ErrTargetNotFound, http.StatusNotFound},
	{domain.ErrReservedUnavailable, http.StatusNotFound},
	{domain.ErrProfileIncomplete, http.StatusConflict},
	{domain.ErrNoActiveConversation, http.StatusConflict},
	{authdomain.ErrNotSignedIn, http.StatusUnauthorized},
}

func writeError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}
	l := logger.FromContext(c.Request.Context())
	l.Error().Err(err).Str("path", c.Request.URL.Path).Msg("chat request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
}
