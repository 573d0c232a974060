package notify

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned when subscribing to a closed registry.
var ErrClosed = errors.New("notify: registry closed")

// watcher is the type-erased view of a Subscription held by the registry.
type watcher interface {
	markDirty()
	stop()
	watchedTables() []string
}

// Registry tracks live subscriptions by table name.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	seq     uint64
	byTable map[string]map[watcher]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byTable: make(map[string]map[watcher]struct{}),
		logger:  logger,
	}
}

// Publish records a commit that touched tables and marks every
// subscription watching any of them dirty. It returns the commit sequence
// number assigned to this publication.
//
// Publish must be called after the transaction has committed.
func (r *Registry) Publish(tables ...string) uint64 {
	r.mu.Lock()
	if r.closed {
		seq := r.seq
		r.mu.Unlock()
		return seq
	}
	r.seq++
	seq := r.seq
	targets := make(map[watcher]struct{})
	for _, table := range tables {
		for w := range r.byTable[table] {
			targets[w] = struct{}{}
		}
	}
	r.mu.Unlock()

	for w := range targets {
		w.markDirty()
	}
	if len(targets) > 0 {
		r.logger.Debug("published commit", "seq", seq, "tables", tables, "subscriptions", len(targets))
	}
	return seq
}

// Seq returns the sequence number of the latest published commit.
func (r *Registry) Seq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[watcher]struct{})
	for _, set := range r.byTable {
		for w := range set {
			seen[w] = struct{}{}
		}
	}
	return len(seen)
}

// Close cancels every live subscription. Later Subscribe calls fail with
// ErrClosed and Publish becomes a no-op.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	all := make(map[watcher]struct{})
	for _, set := range r.byTable {
		for w := range set {
			all[w] = struct{}{}
		}
	}
	r.byTable = make(map[string]map[watcher]struct{})
	r.mu.Unlock()

	for w := range all {
		w.stop()
	}
}

func (r *Registry) register(w watcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	for _, table := range w.watchedTables() {
		set, ok := r.byTable[table]
		if !ok {
			set = make(map[watcher]struct{})
			r.byTable[table] = set
		}
		set[w] = struct{}{}
	}
	return nil
}

func (r *Registry) unregister(w watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, table := range w.watchedTables() {
		set := r.byTable[table]
		delete(set, w)
		if len(set) == 0 {
			delete(r.byTable, table)
		}
	}
}
