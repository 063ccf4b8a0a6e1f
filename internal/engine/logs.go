package engine

import (
	"context"
	"errors"
	"fmt"

	"lectern/internal/api"
	"lectern/internal/repair"
)

// FetchLogs returns execution log records with sequence greater than since.
// For a live run and wait=true the call blocks until new records arrive, the
// run terminates, or the context ends. Archived runs replay their stored
// history immediately. Done is true once the log is terminal and delivered
// through Next.
func (e *Engine) FetchLogs(ctx context.Context, runID string, since uint64, wait bool) (api.LogPage, error) {
	if run, ok := e.orch.Run(runID); ok {
		records, more, err := run.Log().Fetch(ctx, since, wait)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return api.LogPage{}, err
		}
		page := api.LogPage{Next: since, Done: !more}
		for _, rec := range records {
			page.Records = append(page.Records, api.LogRecordFrom(rec))
			page.Next = rec.Seq
		}
		return page, nil
	}

	rec, err := e.store.GetRun(ctx, runID)
	if err != nil {
		return api.LogPage{}, fmt.Errorf("%w: %s", repair.ErrRunNotFound, runID)
	}

	page := api.LogPage{Next: since, Done: true}
	for _, entry := range rec.Log {
		if entry.Seq <= since {
			continue
		}
		page.Records = append(page.Records, api.LogRecord{Seq: entry.Seq, Time: entry.Time, Line: entry.Line})
		page.Next = entry.Seq
	}
	return page, nil
}

// ConsumeLogs streams the full execution log of a run from the beginning,
// following a live run until it terminates. Each call replays history from
// sequence zero.
func (e *Engine) ConsumeLogs(ctx context.Context, runID string) (<-chan api.LogRecord, error) {
	if run, ok := e.orch.Run(runID); ok {
		out := make(chan api.LogRecord)
		go func() {
			defer close(out)
			for rec := range run.Log().Subscribe(ctx) {
				select {
				case out <- api.LogRecordFrom(rec):
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}

	rec, err := e.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", repair.ErrRunNotFound, runID)
	}
	records := api.LogRecordsFromEntries(rec.Log)
	out := make(chan api.LogRecord)
	go func() {
		defer close(out)
		for _, record := range records {
			select {
			case out <- record:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
