// Package chatclient wires the session tracker, conversation directory,
// message stream and account flows of one signed-in user into a single
// owner of their state.
package chatclient

import (
	"context"
	"sync"

	authdomain "github.com/sixchat/sixchat-backend/internal/auth/domain"
	authrepo "github.com/sixchat/sixchat-backend/internal/auth/repository"
	authservice "github.com/sixchat/sixchat-backend/internal/auth/service"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/chats/domain"
	"github.com/sixchat/sixchat-backend/internal/chats/repository"
	"github.com/sixchat/sixchat-backend/internal/chats/service"
	"github.com/sixchat/sixchat-backend/internal/session"
	"github.com/sixchat/sixchat-backend/internal/subscription"
)

// Config holds the collaborators of a Client.
type Config struct {
	Auth           backend.Auth
	Store          backend.DocumentStore
	ReservedNumber string
}

// State is a point-in-time copy of everything the client shows.
type State struct {
	Session          session.Snapshot      `json:"session"`
	Conversations    []domain.Conversation `json:"conversations"`
	ConversationsErr string                `json:"conversations_error,omitempty"`
	Active           string                `json:"active_conversation_id,omitempty"`
	Pending          *domain.Resolved      `json:"pending,omitempty"`
	Messages         []domain.Message      `json:"messages"`
	MessagesErr      string                `json:"messages_error,omitempty"`
}

type Client struct {
	auth      backend.Auth
	subs      *subscription.Manager
	tracker   *session.Tracker
	directory *service.Directory
	stream    *service.Stream
	resolver  *service.Resolver
	composer  *service.Composer
	accounts  *authservice.AuthService

	ctx    context.Context
	cancel context.CancelFunc

	// streamMu serializes moving the stream to the directory's selection.
	streamMu sync.Mutex

	mu       sync.Mutex
	uid      string
	pending  *domain.Resolved
	watchers map[*Watcher]struct{}
	closed   bool
}

// New creates a Client and starts tracking cfg.Auth. ctx bounds every live
// subscription the client opens; Close cancels it.
func New(ctx context.Context, cfg Config) *Client {
	ctx, cancel := context.WithCancel(ctx)
	users := authrepo.NewUserRepository(cfg.Store)
	chats := repository.New(cfg.Store)
	subs := subscription.NewManager()

	c := &Client{
		auth:     cfg.Auth,
		subs:     subs,
		resolver: service.NewResolver(users, chats, cfg.ReservedNumber),
		composer: service.NewComposer(chats),
		accounts: authservice.NewAuthService(cfg.Auth, users),
		ctx:      ctx,
		cancel:   cancel,
		watchers: make(map[*Watcher]struct{}),
	}
	c.tracker = session.NewTracker(cfg.Auth, users, subs)
	c.directory = service.NewDirectory(chats, subs, c.onConversations)
	c.stream = service.NewStream(chats, subs, func() { c.emit(EventMessages) })

	c.tracker.OnChange(c.onSession)
	c.tracker.Start(ctx)
	return c
}

// onSession runs for every tracker change; the tracker serializes calls.
// Restarting or stopping the directory resets the selection, which in turn
// stops the message stream.
func (c *Client) onSession(s session.Snapshot) {
	uid := s.UID()
	c.mu.Lock()
	changed := uid != c.uid
	c.uid = uid
	if changed {
		c.pending = nil
	}
	c.mu.Unlock()

	if changed {
		if uid == "" {
			c.directory.Stop()
		} else {
			c.directory.Start(c.ctx, uid)
		}
	}
	c.emit(EventSession)
}

func (c *Client) onConversations() {
	c.mu.Lock()
	if c.pending != nil && c.directory.Contains(c.pending.ConversationID) {
		c.pending = nil
	}
	c.mu.Unlock()

	c.streamMu.Lock()
	if active := c.directory.Active(); active != c.stream.ConversationID() {
		c.stream.Switch(c.ctx, active)
	}
	c.streamMu.Unlock()
	c.emit(EventConversations)
}

// SignUp creates an account for a six-digit ID and signs it in.
func (c *Client) SignUp(ctx context.Context, req authdomain.SignUpRequest) (*backend.Identity, error) {
	return c.accounts.SignUp(ctx, req)
}

func (c *Client) SignIn(ctx context.Context, req authdomain.SignInRequest) (*backend.Identity, error) {
	return c.accounts.SignIn(ctx, req)
}

// SignOut signs out and clears the profile, conversation list and messages.
func (c *Client) SignOut(ctx context.Context) error {
	return c.accounts.SignOut(ctx)
}

func (c *Client) UpdateDisplayName(ctx context.Context, name string) error {
	return c.accounts.UpdateDisplayName(ctx, name)
}

// StartConversation resolves target and makes the conversation active. The
// peer number is kept as a pending entry until the live list contains it.
func (c *Client) StartConversation(ctx context.Context, target string) (domain.Resolved, error) {
	s := c.tracker.Snapshot()
	if s.Identity == nil {
		return domain.Resolved{}, authdomain.ErrNotSignedIn
	}
	res, err := c.resolver.StartConversation(ctx, s.Identity.UID, s.Number, target)
	if err != nil {
		return res, err
	}
	c.openResolved(res)
	return res, nil
}

// ContactReserved opens the conversation with the configured reserved ID.
func (c *Client) ContactReserved(ctx context.Context) (domain.Resolved, error) {
	s := c.tracker.Snapshot()
	if s.Identity == nil {
		return domain.Resolved{}, authdomain.ErrNotSignedIn
	}
	res, err := c.resolver.ContactReserved(ctx, s.Identity.UID, s.Number)
	if err != nil {
		return res, err
	}
	c.openResolved(res)
	return res, nil
}

func (c *Client) openResolved(res domain.Resolved) {
	c.mu.Lock()
	if !c.directory.Contains(res.ConversationID) {
		r := res
		c.pending = &r
	}
	c.mu.Unlock()
	c.directory.Select(res.ConversationID)
}

// Select makes id the active conversation. An empty id clears the
// selection.
func (c *Client) Select(id string) error {
	s := c.tracker.Snapshot()
	if s.Identity == nil {
		return authdomain.ErrNotSignedIn
	}
	if id != "" && !domain.HasParticipant(id, s.Identity.UID) {
		return domain.ErrInvalidConversation
	}
	c.directory.Select(id)
	return nil
}

// Send posts text to the active conversation.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	return c.SendTo(ctx, c.directory.Active(), text)
}

// SendTo posts text to conversationID as the signed-in user.
func (c *Client) SendTo(ctx context.Context, conversationID, text string) (string, error) {
	s := c.tracker.Snapshot()
	if s.Identity == nil {
		return "", authdomain.ErrNotSignedIn
	}
	if conversationID != "" && !domain.HasParticipant(conversationID, s.Identity.UID) {
		return "", domain.ErrInvalidConversation
	}
	return c.composer.Send(ctx, conversationID, s.Identity.UID, s.Number, s.DisplayName, text)
}

// Identity returns the signed-in identity, or nil.
func (c *Client) Identity() *backend.Identity {
	return c.auth.CurrentIdentity()
}

// State returns a copy of the current state.
func (c *Client) State() State {
	st := State{
		Session:       c.tracker.Snapshot(),
		Conversations: c.directory.Conversations(),
		Active:        c.directory.Active(),
		Messages:      c.stream.Messages(),
	}
	if err := c.directory.Err(); err != nil {
		st.ConversationsErr = err.Error()
	}
	if err := c.stream.Err(); err != nil {
		st.MessagesErr = err.Error()
	}
	c.mu.Lock()
	if c.pending != nil {
		p := *c.pending
		st.Pending = &p
	}
	c.mu.Unlock()
	return st
}

// Close cancels every subscription and closes all watchers. The auth
// session is left as is.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	watchers := c.watchers
	c.watchers = make(map[*Watcher]struct{})
	c.mu.Unlock()

	c.tracker.Stop()
	c.subs.CancelAll()
	c.cancel()
	for w := range watchers {
		w.close()
	}
}
