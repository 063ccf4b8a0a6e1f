package repair

import (
	"context"
	"sync"
	"time"

	"lectern/internal/plan"
)

// Record is one immutable execution log line. Sequence numbers start at 1
// and increase without gaps within a run.
type Record struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Line string    `json:"line"`
}

// Log is the append-only execution log for one repair run. All readers see
// the same total order; subscribing after the run terminates replays the
// full history. Records are never mutated after being appended.
type Log struct {
	mu      sync.Mutex
	cond    *sync.Cond
	records []Record
	nextSeq uint64
	closed  bool
	touched time.Time
}

// NewLog constructs an empty, open execution log.
func NewLog() *Log {
	l := &Log{touched: time.Now().UTC()}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Append adds one record to the log and wakes blocked readers. Appending to
// a closed log is a no-op.
func (l *Log) Append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.nextSeq++
	now := time.Now().UTC()
	l.records = append(l.records, Record{Seq: l.nextSeq, Time: now, Line: line})
	l.touched = now
	l.cond.Broadcast()
}

// Close marks the log terminal. Readers drain the remaining history and
// then observe end-of-stream.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.cond.Broadcast()
}

// Closed reports whether the log has been finalized.
func (l *Log) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// LastActivity returns the time of the most recent append (or log creation
// when nothing has been appended yet). The watchdog uses this to detect
// hung executors.
func (l *Log) LastActivity() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.touched
}

// Snapshot returns a copy of every record appended so far.
func (l *Log) Snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Fetch returns all records with sequence greater than since. When wait is
// true and no newer records exist on an open log, Fetch blocks until a
// record arrives, the log closes, or the context ends. The second return is
// false once the log is closed and fully drained.
func (l *Log) Fetch(ctx context.Context, since uint64, wait bool) ([]Record, bool, error) {
	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				l.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		if records := l.afterLocked(since); len(records) > 0 {
			return records, true, contextError(ctx)
		}
		if l.closed {
			return nil, false, contextError(ctx)
		}
		if !wait {
			return nil, true, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, true, err
		}
		l.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, true, err
		}
	}
}

// Subscribe returns a channel that replays the full log history from the
// beginning and then follows new records until the log closes or the context
// ends. Each subscription restarts from sequence zero.
func (l *Log) Subscribe(ctx context.Context) <-chan Record {
	out := make(chan Record)
	go func() {
		defer close(out)
		var since uint64
		for {
			records, more, err := l.Fetch(ctx, since, true)
			if err != nil {
				return
			}
			for _, rec := range records {
				select {
				case out <- rec:
					since = rec.Seq
				case <-ctxDone(ctx):
					return
				}
			}
			if !more {
				return
			}
		}
	}()
	return out
}

// Entries converts the log history to archive form.
func (l *Log) Entries() []plan.RunLogEntry {
	records := l.Snapshot()
	entries := make([]plan.RunLogEntry, len(records))
	for i, rec := range records {
		entries[i] = plan.RunLogEntry{Seq: rec.Seq, Time: rec.Time, Line: rec.Line}
	}
	return entries
}

func (l *Log) afterLocked(since uint64) []Record {
	if len(l.records) == 0 {
		return nil
	}
	// Sequence numbers are dense, so the first record past since sits at
	// index since relative to the start of the run.
	start := int(since)
	if start >= len(l.records) {
		return nil
	}
	out := make([]Record, len(l.records)-start)
	copy(out, l.records[start:])
	return out
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

func ctxDone(ctx context.Context) <-chan struct{} {
	if ctx == nil {
		return nil
	}
	return ctx.Done()
}
