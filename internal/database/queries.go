package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"readsum/internal/domain"
)

const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 100
)

func (d *Database) RecordRun(ctx context.Context, run domain.Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run ID is empty")
	}

	query := `insert into runs (
		id, url, provider, model, state, extracted_chars, summary, error, started_at, finished_at
	) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		run.ID,
		run.URL,
		string(run.Provider),
		run.Model,
		string(run.State),
		run.ExtractedChars,
		run.Summary,
		run.Error,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
	)

	return err
}

// ListRuns returns the most recently finished runs first.
func (d *Database) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	limit = min(limit, MaxRunsLimit)

	query := `select id, url, provider, model, state, extracted_chars, summary, error, started_at, finished_at
		from runs order by finished_at desc, started_at desc limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"limit", limit,
				"operation", "ListRuns")
		}
	}()

	runs := make([]domain.Run, 0, limit)
	for rows.Next() {
		var (
			r          domain.Run
			provider   string
			state      string
			startedAt  int64
			finishedAt int64
		)

		if err = rows.Scan(
			&r.ID,
			&r.URL,
			&provider,
			&r.Model,
			&state,
			&r.ExtractedChars,
			&r.Summary,
			&r.Error,
			&startedAt,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Provider = domain.Provider(provider)
		r.State = domain.RunState(state)
		r.StartedAt = time.UnixMilli(startedAt).UTC()
		r.FinishedAt = time.UnixMilli(finishedAt).UTC()

		runs = append(runs, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return runs, nil
}

// DeleteRunsBefore removes runs finished before t and returns how many.
func (d *Database) DeleteRunsBefore(ctx context.Context, t time.Time) (int64, error) {
	query := "delete from runs where finished_at < ?"

	res, err := d.db.ExecContext(ctx, query, t.UnixMilli())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
