package backend

import (
	"errors"
	"sync"
)

// Auth error codes shared by every adapter.
const (
	CodeHandleInUse       = "auth/email-already-in-use"
	CodeInvalidHandle     = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeUserNotFound      = "auth/user-not-found"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeUserDisabled      = "auth/user-disabled"
	CodeUnknown           = "auth/unknown"
)

// AuthError carries the backend's error code for a failed auth call.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthErrorCode returns the code of an AuthError anywhere in err's chain.
func AuthErrorCode(err error) (string, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}

// AuthState holds the signed-in identity of one session and notifies
// listeners of changes in order.
type AuthState struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	current   *Identity
	listeners map[uint64]func(*Identity)
	next      uint64
}

// Current returns a copy of the signed-in identity, or nil.
func (s *AuthState) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIdentity(s.current)
}

// Set replaces the identity and notifies every listener.
func (s *AuthState) Set(id *Identity) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = copyIdentity(id)
	fns := make([]func(*Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(id))
	}
}

// Subscribe registers fn and calls it once with the current identity.
func (s *AuthState) Subscribe(fn func(*Identity)) Unsubscribe {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.listeners == nil {
		s.listeners = make(map[uint64]func(*Identity))
	}
	s.next++
	id := s.next
	s.listeners[id] = fn
	current := copyIdentity(s.current)
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func copyIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
