package bootstrap

import (
	"context"
	"fmt"

	"github.com/sixchat/sixchat-backend/config"
	"github.com/sixchat/sixchat-backend/internal/auth"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/backend/firebaseauth"
	"github.com/sixchat/sixchat-backend/internal/backend/firestoredb"
	"github.com/sixchat/sixchat-backend/internal/backend/memory"
)

// Backend is the auth and document backend chosen by configuration.
type Backend struct {
	Driver   string
	Provider backend.AuthProvider
	Verifier backend.TokenVerifier
	Store    backend.DocumentStore
	Close    func() error
}

// OpenBackend builds the Firebase backend, or the in-process one when the
// memory driver is configured.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Backend.Driver {
	case config.DriverMemory:
		accounts := memory.NewAccounts()
		return &Backend{
			Driver:   config.DriverMemory,
			Provider: accounts,
			Verifier: accounts,
			Store:    memory.NewStore(),
			Close:    func() error { return nil },
		}, nil

	case config.DriverFirebase:
		clients, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return nil, err
		}
		provider, err := firebaseauth.NewProvider(ctx, cfg.Firebase.APIKey)
		if err != nil {
			_ = clients.Close()
			return nil, fmt.Errorf("identity toolkit: %w", err)
		}
		return &Backend{
			Driver:   config.DriverFirebase,
			Provider: provider,
			Verifier: firebaseauth.NewTokenVerifier(clients.Auth),
			Store:    firestoredb.New(clients.Firestore),
			Close:    clients.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
}
