package http

import (
	"context"

	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
)

// SessionHub is the part of the session hub the auth endpoints use.
type SessionHub interface {
	NewClient() *chatclient.Client
	Adopt(id backend.Identity) *chatclient.Client
	Register(ctx context.Context, c *chatclient.Client) (string, error)
	Remove(ctx context.Context, token string) error
	RemoveUser(ctx context.Context, uid string) (int, error)
}

type Handler struct {
	hub      SessionHub
	verifier backend.TokenVerifier
}

func New(hub SessionHub, verifier backend.TokenVerifier) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
	}
}
