package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunRecord is the archived form of a finished repair run. The live run is
// owned by the repair engine; once terminal it is written here so operators
// can inspect history after the in-memory handle is gone.
type RunRecord struct {
	ID           string        `json:"id"`
	PlanID       string        `json:"plan_id"`
	Phases       []string      `json:"phases"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Log          []RunLogEntry `json:"log"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// RunLogEntry is one archived execution log line.
type RunLogEntry struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Line string    `json:"line"`
}

// ArchiveRun persists a terminal repair run and prunes history beyond limit
// per plan. Re-archiving the same run identifier replaces the earlier row.
func (s *Store) ArchiveRun(ctx context.Context, rec RunRecord, limit int) error {
	if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.PlanID) == "" {
		return errors.New("run record requires id and plan id")
	}

	phases, err := json.Marshal(rec.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}
	logData, err := json.Marshal(rec.Log)
	if err != nil {
		return fmt.Errorf("marshal run log: %w", err)
	}

	if err := s.execRetry(ctx,
		`INSERT INTO repair_runs (id, plan_id, phases, status, error_message, log, created_at, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             status = excluded.status,
             error_message = excluded.error_message,
             log = excluded.log,
             started_at = excluded.started_at,
             finished_at = excluded.finished_at`,
		rec.ID,
		rec.PlanID,
		string(phases),
		rec.Status,
		rec.ErrorMessage,
		string(logData),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(rec.StartedAt),
		nullableTime(rec.FinishedAt),
	); err != nil {
		return fmt.Errorf("archive run: %w", err)
	}

	if limit > 0 {
		if err := s.execRetry(ctx,
			`DELETE FROM repair_runs WHERE plan_id = ? AND id NOT IN (
                SELECT id FROM repair_runs WHERE plan_id = ? ORDER BY created_at DESC LIMIT ?
            )`,
			rec.PlanID, rec.PlanID, limit,
		); err != nil {
			return fmt.Errorf("prune archived runs: %w", err)
		}
	}
	return nil
}

// GetRun fetches one archived run. Missing runs yield ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, plan_id, phases, status, error_message, log, created_at, started_at, finished_at
         FROM repair_runs WHERE id = ?`, id)
	rec, err := scanRunRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns archived runs for a plan, newest first.
func (s *Store) ListRuns(ctx context.Context, planID string) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_id, phases, status, error_message, log, created_at, started_at, finished_at
         FROM repair_runs WHERE plan_id = ? ORDER BY created_at DESC`, planID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRecord(row rowScanner) (*RunRecord, error) {
	var (
		rec        RunRecord
		phases     string
		logData    string
		createdAt  string
		startedAt  sql.NullString
		finishedAt sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.PlanID, &phases, &rec.Status, &rec.ErrorMessage, &logData, &createdAt, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(phases), &rec.Phases); err != nil {
		return nil, fmt.Errorf("decode phases: %w", err)
	}
	if err := json.Unmarshal([]byte(logData), &rec.Log); err != nil {
		return nil, fmt.Errorf("decode run log: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = created
	rec.StartedAt = parseNullableTime(startedAt)
	rec.FinishedAt = parseNullableTime(finishedAt)
	return &rec, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil
	}
	return &t
}
