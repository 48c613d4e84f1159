package service

import (
	"context"
	"errors"
	"fmt"

	authdomain "github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/chats/domain"
	"github.com/sixchat/sixchat-backend/internal/identity"
)

// ProfileFinder looks up a profile by its six-digit number.
type ProfileFinder interface {
	GetByNumber(ctx context.Context, number string) (*authdomain.Profile, error)
}

// ConversationWriter upserts conversation records.
type ConversationWriter interface {
	UpsertConversation(ctx context.Context, id string, participants, numbers []string) error
}

// Resolver turns a target number into a conversation id, creating or
// refreshing the conversation record.
type Resolver struct {
	users    ProfileFinder
	chats    ConversationWriter
	reserved string
}

// NewResolver creates a Resolver. reservedNumber is the six-digit ID reached
// by ContactReserved and may be empty.
func NewResolver(users ProfileFinder, chats ConversationWriter, reservedNumber string) *Resolver {
	return &Resolver{users: users, chats: chats, reserved: reservedNumber}
}

// StartConversation resolves targetRaw for the signed-in user uid whose own
// number is currentNumber. Every failure before the final merge write leaves
// the backend untouched.
func (r *Resolver) StartConversation(ctx context.Context, uid, currentNumber, targetRaw string) (domain.Resolved, error) {
	if currentNumber == "" {
		return domain.Resolved{}, domain.ErrProfileIncomplete
	}

	target := identity.SanitizeNumber(targetRaw)
	if !identity.IsValidNumber(target) {
		return domain.Resolved{}, domain.ErrInvalidTarget
	}

	peer, err := r.users.GetByNumber(ctx, target)
	if errors.Is(err, authdomain.ErrUserNotFound) {
		return domain.Resolved{}, domain.ErrTargetNotFound
	}
	if err != nil {
		return domain.Resolved{}, fmt.Errorf("resolve %s: %w", target, err)
	}

	if target == currentNumber {
		return domain.Resolved{}, domain.ErrSelfTarget
	}

	id := domain.ConversationID(uid, peer.UID)
	err = r.chats.UpsertConversation(ctx, id,
		[]string{uid, peer.UID},
		[]string{currentNumber, target},
	)
	if err != nil {
		return domain.Resolved{}, err
	}

	return domain.Resolved{ConversationID: id, Number: target}, nil
}

// ContactReserved starts a conversation with the configured reserved number.
func (r *Resolver) ContactReserved(ctx context.Context, uid, currentNumber string) (domain.Resolved, error) {
	if r.reserved == "" {
		return domain.Resolved{}, domain.ErrReservedUnavailable
	}

	res, err := r.StartConversation(ctx, uid, currentNumber, r.reserved)
	if errors.Is(err, domain.ErrTargetNotFound) || errors.Is(err, domain.ErrInvalidTarget) {
		return domain.Resolved{}, domain.ErrReservedUnavailable
	}
	return res, err
}
