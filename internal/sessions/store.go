// Package sessions maps gateway session tokens to live chat clients.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sixchat/sixchat-backend/internal/backend"
)

const (
	sessionKeyPrefix  = "chat:session:" // chat:session:{token}
	userSessionPrefix = "chat:user:"    // set of tokens for a user: chat:user:{uid}
)

var ErrSessionNotFound = errors.New("session not found")

// Record is what survives a restart for one session token.
type Record struct {
	Token     string    `json:"token"`
	UID       string    `json:"uid"`
	Handle    string    `json:"handle"`
	IDToken   string    `json:"id_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity returns the auth identity stored in the record.
func (r *Record) Identity() backend.Identity {
	return backend.Identity{UID: r.UID, Handle: r.Handle, IDToken: r.IDToken}
}

// Store keeps session records in Redis with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Create issues a new token for id.
func (s *Store) Create(ctx context.Context, id backend.Identity) (*Record, error) {
	rec := &Record{
		Token:     uuid.New().String(),
		UID:       id.UID,
		Handle:    id.Handle,
		IDToken:   id.IDToken,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(rec.Token), data, s.ttl)
	pipe.SAdd(ctx, userKey(rec.UID), rec.Token)
	pipe.Expire(ctx, userKey(rec.UID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, token string) (*Record, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &rec, nil
}

// Touch extends the TTL of token.
func (s *Store) Touch(ctx context.Context, token string) error {
	ok, err := s.client.Expire(ctx, sessionKey(token), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	rec, err := s.Get(ctx, token)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userKey(rec.UID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListByUID returns the tokens issued to uid.
func (s *Store) ListByUID(ctx context.Context, uid string) ([]string, error) {
	tokens, err := s.client.SMembers(ctx, userKey(uid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return tokens, nil
}

// DeleteByUID deletes every session of uid and returns their tokens.
func (s *Store) DeleteByUID(ctx context.Context, uid string) ([]string, error) {
	tokens, err := s.ListByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	pipe := s.client.Pipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, userKey(uid))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return tokens, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func userKey(uid string) string {
	return userSessionPrefix + uid
}
