package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// recv waits for the next snapshot or fails the test.
func recv[T any](t *testing.T, sub *Subscription[T]) Snapshot[T] {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		require.True(t, ok, "subscription channel closed")
		return snap
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot[T]{}
	}
}

// expectQuiet asserts that no snapshot arrives within a short window.
func expectQuiet[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

// counter is a fake table whose query returns its current value.
type counter struct {
	n atomic.Int64
}

func (c *counter) query(context.Context) (int64, error) {
	return c.n.Load(), nil
}

func TestSubscribe_InitialSnapshot(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}
	c.n.Store(3)

	sub, err := Subscribe(context.Background(), reg, c.query, "projects")
	require.NoError(t, err)
	defer sub.Cancel()

	snap := recv(t, sub)
	assert.NoError(t, snap.Err)
	assert.Equal(t, int64(3), snap.Value)
	assert.NotEmpty(t, sub.ID())
}

func TestSubscribe_PublishDeliversFreshSnapshot(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	sub, err := Subscribe(context.Background(), reg, c.query, "projects")
	require.NoError(t, err)
	defer sub.Cancel()

	first := recv(t, sub)
	assert.Equal(t, int64(0), first.Value)

	c.n.Store(1)
	seq := reg.Publish("projects")

	second := recv(t, sub)
	assert.Equal(t, int64(1), second.Value)
	assert.Equal(t, seq, second.Seq)
	assert.Greater(t, second.Seq, first.Seq)

	expectQuiet(t, sub)
}

func TestSubscribe_UnrelatedTableIsIgnored(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	sub, err := Subscribe(context.Background(), reg, c.query, "projects")
	require.NoError(t, err)
	defer sub.Cancel()

	recv(t, sub)
	reg.Publish("frames")
	expectQuiet(t, sub)
}

func TestSubscribe_WatchesMultipleTables(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	sub, err := Subscribe(context.Background(), reg, c.query, "projects", "frames")
	require.NoError(t, err)
	defer sub.Cancel()

	recv(t, sub)
	c.n.Store(9)
	reg.Publish("frames")
	assert.Equal(t, int64(9), recv(t, sub).Value)
	assert.Equal(t, 1, reg.Len())
}

func TestSubscribe_QueryErrorIsDelivered(t *testing.T) {
	reg := NewRegistry(nil)
	boom := errors.New("disk on fire")
	var fail atomic.Bool

	query := func(context.Context) (string, error) {
		if fail.Load() {
			return "", boom
		}
		return "ok", nil
	}

	sub, err := Subscribe(context.Background(), reg, query, "projects")
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Equal(t, "ok", recv(t, sub).Value)

	fail.Store(true)
	reg.Publish("projects")
	snap := recv(t, sub)
	assert.ErrorIs(t, snap.Err, boom)

	// The subscription survives and recovers on the next commit.
	fail.Store(false)
	reg.Publish("projects")
	snap = recv(t, sub)
	assert.NoError(t, snap.Err)
	assert.Equal(t, "ok", snap.Value)
}

func TestSubscribe_CancelClosesAndUnregisters(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	sub, err := Subscribe(context.Background(), reg, c.query, "projects")
	require.NoError(t, err)
	recv(t, sub)
	require.Equal(t, 1, reg.Len())

	sub.Cancel()
	sub.Cancel() // idempotent

	assert.Equal(t, 0, reg.Len())
	_, ok := <-sub.C()
	assert.False(t, ok, "channel should be closed after Cancel")

	// Publishing after cancel is harmless.
	reg.Publish("projects")
}

func TestSubscribe_ContextCancelEndsSubscription(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := Subscribe(ctx, reg, c.query, "projects")
	require.NoError(t, err)
	recv(t, sub)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("subscription did not stop after context cancel")
	}
	assert.Equal(t, 0, reg.Len())
}

func TestSubscribe_CancelWhileUnread(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	sub, err := Subscribe(context.Background(), reg, c.query, "projects")
	require.NoError(t, err)

	// Never read the initial snapshot; Cancel must not block.
	done := make(chan struct{})
	go func() {
		sub.Cancel()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Cancel blocked on an unread snapshot")
	}
}

func TestSubscribe_SnapshotsNeverGoBackwards(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	sub, err := Subscribe(context.Background(), reg, c.query, "projects")
	require.NoError(t, err)
	defer sub.Cancel()

	const writes = 50
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			c.n.Store(int64(i))
			reg.Publish("projects")
		}
	}()

	var last int64 = -1
	var lastSeq uint64
	for last < writes {
		snap := recv(t, sub)
		require.GreaterOrEqual(t, snap.Value, last)
		require.GreaterOrEqual(t, snap.Seq, lastSeq)
		last = snap.Value
		lastSeq = snap.Seq
	}
	wg.Wait()
	assert.Equal(t, int64(writes), last)
}

func TestSubscribe_Validation(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	_, err := Subscribe(context.Background(), reg, c.query)
	assert.Error(t, err)

	_, err = Subscribe[int64](context.Background(), reg, nil, "projects")
	assert.Error(t, err)
}

func TestRegistry_CloseCancelsAll(t *testing.T) {
	reg := NewRegistry(nil)
	c := &counter{}

	a, err := Subscribe(context.Background(), reg, c.query, "projects")
	require.NoError(t, err)
	b, err := Subscribe(context.Background(), reg, c.query, "frames")
	require.NoError(t, err)

	reg.Close()
	reg.Close()

	for _, sub := range []*Subscription[int64]{a, b} {
		select {
		case <-sub.Done():
		case <-time.After(waitTimeout):
			t.Fatal("subscription still running after Close")
		}
	}
	assert.Equal(t, 0, reg.Len())

	_, err = Subscribe(context.Background(), reg, c.query, "projects")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegistry_PublishSeq(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Equal(t, uint64(0), reg.Seq())
	assert.Equal(t, uint64(1), reg.Publish("projects"))
	assert.Equal(t, uint64(2), reg.Publish())
	assert.Equal(t, uint64(2), reg.Seq())
}
