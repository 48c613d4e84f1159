// Package memory is an in-process implementation of the backend contract
// for local development and tests.
package memory

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sixchat/sixchat-backend/internal/backend"
)

// Store is an in-memory backend.DocumentStore with live queries. Snapshots
// are delivered asynchronously on a goroutine per subscription, latest state
// wins.
type Store struct {
	mu          sync.RWMutex
	docs        map[string]map[string]interface{}
	watchers    map[uint64]*watcher
	nextWatcher uint64
	lastStamp   time.Time
	writes      int
	queryErrs   map[string]error
	writeErr    error

	// Now is the clock used for server timestamps.
	Now func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		docs:      make(map[string]map[string]interface{}),
		watchers:  make(map[uint64]*watcher),
		queryErrs: make(map[string]error),
		Now:       time.Now,
	}
}

// Writes returns the number of committed writes.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// FailQueries makes live queries on collection fail with err. A nil err
// clears the failure.
func (s *Store) FailQueries(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.queryErrs, collection)
		return
	}
	s.queryErrs[collection] = err
}

// FailWrites makes every subsequent write fail with err. A nil err clears the
// failure.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *Store) GetDocument(ctx context.Context, path string) (*backend.Snapshot, error) {
	if !isDocPath(path) {
		return nil, backend.ErrInvalidPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(path), nil
}

func (s *Store) WriteMerge(ctx context.Context, path string, fields map[string]interface{}) error {
	if !isDocPath(path) {
		return backend.ErrInvalidPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}

	doc, ok := s.docs[path]
	if !ok {
		doc = make(map[string]interface{}, len(fields))
		s.docs[path] = doc
	}
	stamp := s.stampLocked()
	for k, v := range fields {
		doc[k] = resolveValue(v, stamp)
	}
	s.writes++
	s.notifyLocked(path)
	return nil
}

func (s *Store) AppendDocument(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	if !isCollectionPath(collection) {
		return "", backend.ErrInvalidPath
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return "", s.writeErr
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	path := collection + "/" + id
	stamp := s.stampLocked()
	doc := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		doc[k] = resolveValue(v, stamp)
	}
	s.docs[path] = doc
	s.writes++
	s.notifyLocked(path)
	return id, nil
}

func (s *Store) QueryOnce(ctx context.Context, q backend.Query) ([]*backend.Snapshot, error) {
	if !isCollectionPath(q.Collection) {
		return nil, backend.ErrInvalidPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runQueryLocked(q), nil
}

func (s *Store) SubscribeDocument(ctx context.Context, path string, fn func(*backend.Snapshot, error)) backend.Unsubscribe {
	if !isDocPath(path) {
		go fn(nil, backend.ErrInvalidPath)
		return func() {}
	}
	w := s.watcher(ctx, func(changed string) bool { return changed == path }, func(*watcher) {
		s.mu.RLock()
		snap := s.snapshotLocked(path)
		s.mu.RUnlock()
		fn(snap, nil)
	})
	return w.stop
}

func (s *Store) SubscribeQuery(ctx context.Context, q backend.Query, fn func([]*backend.Snapshot, error)) backend.Unsubscribe {
	if !isCollectionPath(q.Collection) {
		go fn(nil, backend.ErrInvalidPath)
		return func() {}
	}

	w := s.watcher(ctx, func(changed string) bool { return parentOf(changed) == q.Collection }, func(w *watcher) {
		s.mu.RLock()
		if err := s.queryErrs[q.Collection]; err != nil {
			s.mu.RUnlock()
			fn(nil, err)
			w.stop()
			return
		}
		docs := s.runQueryLocked(q)
		s.mu.RUnlock()
		fn(docs, nil)
	})
	return w.stop
}

func (s *Store) watcher(ctx context.Context, matches func(string) bool, deliver func(*watcher)) *watcher {
	w := &watcher{
		matches: matches,
		deliver: deliver,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.remove = func() {
		s.mu.Lock()
		delete(s.watchers, w.id)
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.nextWatcher++
	w.id = s.nextWatcher
	s.watchers[w.id] = w
	s.mu.Unlock()

	w.notify <- struct{}{}
	go w.run(ctx)
	return w
}

// notifyLocked wakes every watcher interested in path. Caller holds s.mu.
func (s *Store) notifyLocked(path string) {
	for _, w := range s.watchers {
		if w.matches(path) {
			w.wake()
		}
	}
}

func (s *Store) stampLocked() time.Time {
	t := s.Now().UTC()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = t
	return t
}

func (s *Store) snapshotLocked(path string) *backend.Snapshot {
	snap := &backend.Snapshot{ID: lastSegment(path), Path: path}
	if doc, ok := s.docs[path]; ok {
		snap.Exists = true
		snap.Data = copyFields(doc)
	}
	return snap
}

func (s *Store) runQueryLocked(q backend.Query) []*backend.Snapshot {
	out := make([]*backend.Snapshot, 0)
	for path, doc := range s.docs {
		if parentOf(path) != q.Collection || !matchesFilters(doc, q.Filters) {
			continue
		}
		if q.OrderBy != "" {
			if _, ok := doc[q.OrderBy]; !ok {
				continue
			}
		}
		out = append(out, s.snapshotLocked(path))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
			if c != 0 {
				if q.Direction == backend.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].ID < out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

type watcher struct {
	id      uint64
	matches func(string) bool
	deliver func(*watcher)
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
	remove  func()
}

func (w *watcher) wake() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *watcher) stop() {
	w.once.Do(func() {
		close(w.done)
		if w.remove != nil {
			w.remove()
		}
	})
}

func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			w.stop()
			return
		case <-w.notify:
			select {
			case <-w.done:
				return
			default:
			}
			w.deliver(w)
		}
	}
}

func resolveValue(v interface{}, stamp time.Time) interface{} {
	if v == backend.ServerTimestamp {
		return stamp
	}
	return copyValue(v)
}

func copyFields(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		copy(out, t)
		return out
	case map[string]interface{}:
		return copyFields(t)
	}
	return v
}

func matchesFilters(doc map[string]interface{}, filters []backend.Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case backend.OpEqual:
			if compareValues(v, f.Value) != 0 || !sameKind(v, f.Value) {
				return false
			}
		case backend.OpArrayContains:
			arr, ok := v.([]interface{})
			if !ok {
				return false
			}
			found := false
			for _, item := range arr {
				if reflect.DeepEqual(item, f.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sameKind(a, b interface{}) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// compareValues orders timestamps, strings and numbers; other values compare
// equal only when deeply equal.
func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return 1
}

func segments(path string) []string {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return nil
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return parts
}

func isDocPath(path string) bool {
	n := len(segments(path))
	return n > 0 && n%2 == 0
}

func isCollectionPath(path string) bool {
	return len(segments(path))%2 == 1
}

func parentOf(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

func lastSegment(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
