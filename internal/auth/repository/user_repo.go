package repository

import (
	"context"
	"fmt"

	"github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/backend"
)

const usersCollection = "users"

type UserRepository struct {
	store backend.DocumentStore
}

func NewUserRepository(store backend.DocumentStore) *UserRepository {
	return &UserRepository{store: store}
}

func userPath(uid string) string {
	return usersCollection + "/" + uid
}

// Create writes the profile document created alongside a new credential.
func (r *UserRepository) Create(ctx context.Context, uid, number string) error {
	err := r.store.WriteMerge(ctx, userPath(uid), map[string]interface{}{
		"number":      number,
		"displayName": "",
		"createdAt":   backend.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// UpdateDisplayName merges only the displayName field.
func (r *UserRepository) UpdateDisplayName(ctx context.Context, uid, name string) error {
	err := r.store.WriteMerge(ctx, userPath(uid), map[string]interface{}{
		"displayName": name,
	})
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

// GetByUID retrieves a profile by its auth identity.
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*domain.Profile, error) {
	snap, err := r.store.GetDocument(ctx, userPath(uid))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, domain.ErrUserNotFound
	}
	return toProfile(snap), nil
}

// GetByNumber is a point query on the number field.
func (r *UserRepository) GetByNumber(ctx context.Context, number string) (*domain.Profile, error) {
	docs, err := r.store.QueryOnce(ctx, backend.Query{
		Collection: usersCollection,
		Filters:    []backend.Filter{{Field: "number", Op: backend.OpEqual, Value: number}},
		Limit:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup number: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return toProfile(docs[0]), nil
}

// Subscribe streams the profile of uid. A missing document is delivered as
// a nil profile.
func (r *UserRepository) Subscribe(ctx context.Context, uid string, fn func(*domain.Profile, error)) backend.Unsubscribe {
	return r.store.SubscribeDocument(ctx, userPath(uid), func(snap *backend.Snapshot, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		if !snap.Exists {
			fn(nil, nil)
			return
		}
		fn(toProfile(snap), nil)
	})
}

func toProfile(snap *backend.Snapshot) *domain.Profile {
	return &domain.Profile{
		UID:         snap.ID,
		Number:      snap.String("number"),
		DisplayName: snap.String("displayName"),
		CreatedAt:   snap.Time("createdAt"),
	}
}
