package chatclient

import "sync"

// EventKind names the part of the state that changed.
type EventKind string

const (
	EventSession       EventKind = "session"
	EventConversations EventKind = "conversations"
	EventMessages      EventKind = "messages"
)

var eventOrder = []EventKind{EventSession, EventConversations, EventMessages}

// Watcher collects change notifications. Repeated changes of one kind are
// coalesced until the next Drain.
type Watcher struct {
	mu      sync.Mutex
	pending map[EventKind]bool
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newWatcher() *Watcher {
	return &Watcher{
		pending: make(map[EventKind]bool),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// C fires whenever Drain has something to return.
func (w *Watcher) C() <-chan struct{} { return w.notify }

// Done is closed when the client closes or the watcher is removed.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Drain returns and clears the pending kinds in a fixed order.
func (w *Watcher) Drain() []EventKind {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]EventKind, 0, len(w.pending))
	for _, k := range eventOrder {
		if w.pending[k] {
			out = append(out, k)
		}
	}
	w.pending = make(map[EventKind]bool)
	return out
}

func (w *Watcher) push(kind EventKind) {
	w.mu.Lock()
	w.pending[kind] = true
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *Watcher) close() {
	w.once.Do(func() { close(w.done) })
}

// Watch registers a Watcher. The returned func removes it.
func (c *Client) Watch() (*Watcher, func()) {
	w := newWatcher()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		w.close()
		return w, func() {}
	}
	c.watchers[w] = struct{}{}
	c.mu.Unlock()

	return w, func() {
		c.mu.Lock()
		delete(c.watchers, w)
		c.mu.Unlock()
		w.close()
	}
}

func (c *Client) emit(kind EventKind) {
	c.mu.Lock()
	watchers := make([]*Watcher, 0, len(c.watchers))
	for w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()

	for _, w := range watchers {
		w.push(kind)
	}
}

// Watching reports whether any watcher is registered.
func (c *Client) Watching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers) > 0
}
