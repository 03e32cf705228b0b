package spin

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Counter holds the shared jackpot. Readers see only committed values;
// mutations happen through a JackpotTxn, and at most one JackpotTxn is open
// at any time.
type Counter struct {
	sem       *semaphore.Weighted
	committed atomic.Int64
	onCommit  func(int64)
}

func NewCounter(initial int64) *Counter {
	c := &Counter{sem: semaphore.NewWeighted(1)}
	c.committed.Store(initial)

	return c
}

// OnCommit registers fn to run on every commit while exclusive access is still
// held, so successive calls observe commits in order. fn must not block for
// long and must not begin a transaction. Set it before the first Begin.
func (c *Counter) OnCommit(fn func(int64)) {
	c.onCommit = fn
}

// Value returns the last committed jackpot.
func (c *Counter) Value() int64 {
	return c.committed.Load()
}

// Begin waits for exclusive access to the jackpot. It fails only when ctx is
// done before access is granted. The caller must end the transaction with
// Commit or Rollback.
func (c *Counter) Begin(ctx context.Context) (*JackpotTxn, error) {
	err := c.sem.Acquire(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("acquire jackpot: %w", err)
	}

	v := c.committed.Load()

	return &JackpotTxn{c: c, backup: v, working: v}, nil
}

// JackpotTxn is an exclusive, uncommitted view of the jackpot.
type JackpotTxn struct {
	c       *Counter
	backup  int64
	working int64
	closed  bool
}

// Backup is the committed value at the moment the transaction began.
func (t *JackpotTxn) Backup() int64 { return t.backup }

// Value is the working (uncommitted) value.
func (t *JackpotTxn) Value() int64 { return t.working }

func (t *JackpotTxn) Add(stake int64) {
	t.working += stake
}

// Drain returns the working value and resets it to zero.
func (t *JackpotTxn) Drain() int64 {
	v := t.working
	t.working = 0

	return v
}

func (t *JackpotTxn) set(v int64) {
	t.working = v
}

// Commit publishes the working value, runs the OnCommit hook and releases
// the jackpot.
func (t *JackpotTxn) Commit() int64 {
	if t.closed {
		return t.c.committed.Load()
	}

	t.closed = true
	t.c.committed.Store(t.working)

	defer t.c.sem.Release(1)

	if t.c.onCommit != nil {
		t.c.onCommit(t.working)
	}

	return t.working
}

// Rollback discards the working value and releases the jackpot. It is a
// no-op after Commit or a previous Rollback.
func (t *JackpotTxn) Rollback() {
	if t.closed {
		return
	}

	t.closed = true
	t.working = t.backup
	t.c.sem.Release(1)
}
