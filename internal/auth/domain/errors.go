package domain

import (
	"errors"
	"sort"
	"strings"

	"github.com/sixchat/sixchat-backend/internal/backend"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotSignedIn  = errors.New("not signed in")
)

// Form fields reported by ValidationError.
const (
	FieldNumber   = "number"
	FieldPassword = "password"
	FieldConfirm  = "confirm"
	FieldName     = "display_name"
)

// ValidationError lists field-level problems found before any backend call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// GenericAuthMessage is shown for auth codes without a dedicated sentence.
const GenericAuthMessage = "Something went wrong. Please try again."

var authMessages = map[string]string{
	backend.CodeHandleInUse:       "This ID is already taken.",
	backend.CodeInvalidHandle:     "This ID is not valid.",
	backend.CodeWeakPassword:      "Password must be at least 6 characters.",
	backend.CodeWrongPassword:     "Wrong ID or password.",
	backend.CodeInvalidCredential: "Wrong ID or password.",
	backend.CodeUserNotFound:      "No account exists with this ID.",
	backend.CodeTooManyRequests:   "Too many attempts. Please wait a moment and try again.",
	backend.CodeUserDisabled:      "This account has been disabled.",
}

// AuthError is an auth backend failure with its user-facing sentence.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError maps err to an AuthError. Errors without a backend code keep
// the generic sentence.
func NewAuthError(err error) *AuthError {
	code, ok := backend.AuthErrorCode(err)
	if !ok {
		code = backend.CodeUnknown
	}
	msg, ok := authMessages[code]
	if !ok {
		msg = GenericAuthMessage
	}
	return &AuthError{Code: code, Message: msg, Err: err}
}
