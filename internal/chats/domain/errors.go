package domain

import "errors"

var (
	ErrProfileIncomplete    = errors.New("profile not loaded yet")
	ErrInvalidTarget        = errors.New("enter a 6-digit ID")
	ErrTargetNotFound       = errors.New("no user with that ID")
	ErrSelfTarget           = errors.New("you cannot start a chat with yourself")
	ErrReservedUnavailable  = errors.New("that contact is not available right now")
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrInvalidConversation  = errors.New("invalid conversation id")
)
