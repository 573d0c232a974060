package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is one delivered query result.
type Snapshot[T any] struct {
	// Seq is the latest commit sequence observed before the query ran.
	// The result reflects at least every commit up to Seq.
	Seq   uint64
	Value T
	Err   error
}

// QueryFunc produces a fresh result. It is called on the subscription's
// goroutine and must not hold a write transaction.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// Subscription is a live query. Receive snapshots from C until it closes.
type Subscription[T any] struct {
	id     string
	tables []string
	reg    *Registry
	query  QueryFunc[T]

	ctx    context.Context
	cancel context.CancelFunc

	dirty chan struct{} // buffered(1); coalesces commits
	out   chan Snapshot[T]
	done  chan struct{}

	stopOnce sync.Once
}

// Subscribe starts a live query watching tables. The subscription ends
// when ctx is done or Cancel is called.
func Subscribe[T any](ctx context.Context, reg *Registry, query QueryFunc[T], tables ...string) (*Subscription[T], error) {
	if len(tables) == 0 {
		return nil, errors.New("notify: subscribe: no tables to watch")
	}
	if query == nil {
		return nil, errors.New("notify: subscribe: nil query")
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		id:     uuid.Must(uuid.NewV7()).String(),
		tables: append([]string(nil), tables...),
		reg:    reg,
		query:  query,
		ctx:    subCtx,
		cancel: cancel,
		dirty:  make(chan struct{}, 1),
		out:    make(chan Snapshot[T]),
		done:   make(chan struct{}),
	}

	// Registered before the initial query runs, so no commit can slip
	// between the initial snapshot and the first notification.
	if err := reg.register(s); err != nil {
		cancel()
		return nil, err
	}
	s.markDirty()

	reg.logger.Debug("subscription opened", "subscription", s.id, "tables", s.tables)
	go s.run()
	return s, nil
}

// ID returns the subscription identifier used in logs.
func (s *Subscription[T]) ID() string {
	return s.id
}

// C returns the snapshot channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan Snapshot[T] {
	return s.out
}

// Done is closed once the subscription has fully shut down.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Cancel ends the subscription and waits for its goroutine to exit.
// Safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.stop()
	<-s.done
}

func (s *Subscription[T]) run() {
	defer close(s.done)
	defer close(s.out)
	defer s.reg.unregister(s)
	defer s.reg.logger.Debug("subscription closed", "subscription", s.id)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.dirty:
		}

		seq := s.reg.Seq()
		value, err := s.query(s.ctx)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			s.reg.logger.Warn("live query failed", "subscription", s.id, "seq", seq, "error", err)
		}

		select {
		case s.out <- Snapshot[T]{Seq: seq, Value: value, Err: err}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Subscription[T]) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) stop() {
	s.stopOnce.Do(s.cancel)
}

func (s *Subscription[T]) watchedTables() []string {
	return s.tables
}
