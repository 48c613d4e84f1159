package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sixchat/sixchat-backend/internal/auth"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
)

// StreamEvents streams state changes of the session's client using
// Server-Sent Events. Each event carries the part of the state that changed.
func (h *Handler) StreamEvents(c *gin.Context) {
	client := auth.Client(c)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// Register before the initial state so no change slips in between.
	w, unwatch := client.Watch()
	defer unwatch()

	writeEvent(c, "initial", client.State())
	flusher.Flush()

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.Done():
			writeEvent(c, "closed", gin.H{"reason": "session closed"})
			flusher.Flush()
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-w.C():
			kinds, st := pendingEvents(w, client.State)
			for _, kind := range kinds {
				writeEvent(c, string(kind), eventPayload(kind, st))
			}
			flusher.Flush()
		}
	}
}

type drainer interface {
	Drain() []chatclient.EventKind
}

// pendingEvents drains w before reading the state, so every drained kind is
// sent with a snapshot no older than the change that queued it.
func pendingEvents(w drainer, state func() chatclient.State) ([]chatclient.EventKind, chatclient.State) {
	kinds := w.Drain()
	return kinds, state()
}

func eventPayload(kind chatclient.EventKind, st chatclient.State) interface{} {
	switch kind {
	case chatclient.EventSession:
		return st.Session
	case chatclient.EventConversations:
		return conversationsResponse{
			Conversations: viewsFor(st),
			Active:        st.Active,
			Pending:       st.Pending,
			Error:         st.ConversationsErr,
		}
	default:
		return messagesResponse{
			ConversationID: st.Active,
			Messages:       st.Messages,
			Error:          st.MessagesErr,
		}
	}
}

func writeEvent(c *gin.Context, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(gin.H{"error": err.Error()})
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(data))
}
