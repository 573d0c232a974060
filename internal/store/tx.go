package store

import (
	"context"
	"database/sql"
	"sort"
)

// queryer is satisfied by both *sql.DB and *sql.Tx, so read helpers run
// either standalone or inside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txn is a write transaction plus the set of tables it touched.
type txn struct {
	tx      *sql.Tx
	now     int64
	touched map[string]struct{}
}

func (t *txn) touch(tables ...string) {
	for _, table := range tables {
		t.touched[table] = struct{}{}
	}
}

func (t *txn) tables() []string {
	out := make([]string, 0, len(t.touched))
	for table := range t.touched {
		out = append(out, table)
	}
	sort.Strings(out)
	return out
}

// write runs fn inside the single-writer transaction scope.
//
// Once the transaction begins it runs to completion or failure: ctx is
// detached from cancellation for the duration. Errors from fn are returned
// unchanged after rollback. On commit, the touched tables are published to
// live-query subscribers.
func (s *Store) write(ctx context.Context, op string, fn func(ctx context.Context, t *txn) error) error {
	if err := s.checkOpen(ctx, op); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}

	t := &txn{
		tx:      tx,
		now:     s.now(),
		touched: make(map[string]struct{}),
	}
	if err := fn(ctx, t); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "op", op, "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &Error{Code: ErrCodeTransactionFailure, Op: op, Err: err}
	}

	// Published under writeMu so subscribers see commits in order.
	if len(t.touched) > 0 {
		s.notifier.Publish(t.tables()...)
	}
	return nil
}

// atomically is write for composite operations: any sub-step failure is
// reported as one TRANSACTION_FAILURE wrapping the cause.
func (s *Store) atomically(ctx context.Context, op string, fn func(ctx context.Context, t *txn) error) error {
	return s.write(ctx, op, func(ctx context.Context, t *txn) error {
		if err := fn(ctx, t); err != nil {
			return txFailure(op, err)
		}
		return nil
	})
}

// snapshot runs fn inside one read transaction, so every query in fn sees
// the same committed state.
func (s *Store) snapshot(ctx context.Context, op string, fn func(ctx context.Context, q queryer) error) error {
	if err := s.checkOpen(ctx, op); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(ctx, tx); err != nil {
		return txFailure(op, err)
	}
	if err := tx.Commit(); err != nil {
		return &Error{Code: ErrCodeTransactionFailure, Op: op, Err: err}
	}
	return nil
}
