package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchPrintsChanges(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "create", "--name", "Bow")
	require.NoError(t, err)

	out := &syncBuffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "watch", "--poll", "10ms"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Bow")
	}, 5*time.Second, 10*time.Millisecond)

	// A write from another connection is picked up by polling.
	_, err = execute(t, "--db", db, "create", "--name", "Wave")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Wave")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Contains(t, out.String(), "--- update ")
}
