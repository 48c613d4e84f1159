// Package backend declares the contract with the managed backend: an auth
// service and a document store with live queries. Adapters live in the
// firebaseauth, firestoredb and memory subpackages.
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidPath is returned when a document or collection path has the
// wrong number of segments.
var ErrInvalidPath = errors.New("invalid document path")

// Identity is an opaque account reference issued by the auth service.
type Identity struct {
	UID     string `json:"uid"`
	Handle  string `json:"handle"`
	IDToken string `json:"-"`
}

// Unsubscribe cancels a live subscription. It is safe to call more than once.
type Unsubscribe func()

// Auth is one client's view of the auth service. Each signed-in session owns
// its own Auth.
type Auth interface {
	CreateAccount(ctx context.Context, handle, password string) (*Identity, error)
	SignIn(ctx context.Context, handle, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers fn and calls it immediately with the
	// current identity (nil when signed out), then on every change.
	OnAuthStateChange(fn func(*Identity)) Unsubscribe
	CurrentIdentity() *Identity
}

// AuthProvider hands out per-session Auth values.
type AuthProvider interface {
	NewSession() Auth
	// RestoreSession returns an Auth already signed in as id.
	RestoreSession(id Identity) Auth
}

// TokenVerifier resolves an ID token issued by the auth service.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

// DocumentStore is the document database with live queries.
type DocumentStore interface {
	// GetDocument returns a snapshot with Exists false for missing documents.
	GetDocument(ctx context.Context, path string) (*Snapshot, error)
	SubscribeDocument(ctx context.Context, path string, fn func(*Snapshot, error)) Unsubscribe
	SubscribeQuery(ctx context.Context, q Query, fn func([]*Snapshot, error)) Unsubscribe
	// WriteMerge updates only the given fields, creating the document if absent.
	WriteMerge(ctx context.Context, path string, fields map[string]interface{}) error
	// AppendDocument adds a document with a backend-assigned id.
	AppendDocument(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	QueryOnce(ctx context.Context, q Query) ([]*Snapshot, error)
}

type sentinel int

// ServerTimestamp is a field value replaced by the backend's commit time.
const ServerTimestamp sentinel = iota

// Op is a query filter operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter restricts a query on a single field.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Query describes a collection query. Documents that lack the OrderBy field
// are excluded from the result.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

// Snapshot is a point-in-time copy of one document.
type Snapshot struct {
	ID     string
	Path   string
	Exists bool
	Data   map[string]interface{}
}

// String returns a string field, or "" when absent or of another type.
func (s *Snapshot) String(field string) string {
	v, _ := s.Data[field].(string)
	return v
}

// Strings returns an array-of-strings field.
func (s *Snapshot) Strings(field string) []string {
	switch v := s.Data[field].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Time returns a timestamp field, or the zero time when it is absent or still
// pending.
func (s *Snapshot) Time(field string) time.Time {
	v, _ := s.Data[field].(time.Time)
	return v
}
