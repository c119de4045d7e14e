package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spreport/database"
	"spreport/domain/contracts"
)

// SqliteRunRepository persists report run history to the local database.
type SqliteRunRepository struct {
	db *database.Database
}

// NewSqliteRunRepository creates a run repository backed by the given database.
func NewSqliteRunRepository(db *database.Database) contracts.RunRepository {
	return &SqliteRunRepository{db: db}
}

// CreateRun inserts a new run and populates its ID.
func (r *SqliteRunRepository) CreateRun(ctx context.Context, run *contracts.ReportRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	res, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO report_runs (kind, site_url, target, output_path, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.Kind, run.SiteURL, run.Target, run.OutputPath, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("report run id: %w", err)
	}
	run.ID = id
	return nil
}

// CompleteRun records completion time and final counters for a run.
func (r *SqliteRunRepository) CompleteRun(ctx context.Context, runID int64, rowCount, errorCount int64) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE report_runs
		SET row_count = ?, error_count = ?, completed_at = ?
		WHERE id = ?`,
		rowCount, errorCount, time.Now().UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("complete report run %d: %w", runID, err)
	}
	return nil
}

// SaveFailure records a per-folder failure for a run.
func (r *SqliteRunRepository) SaveFailure(ctx context.Context, failure *contracts.RunFailure) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO run_failures (run_id, name, reason) VALUES (?, ?, ?)`,
		failure.RunID, failure.Name, failure.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert run failure for run %d: %w", failure.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *SqliteRunRepository) ListRuns(ctx context.Context, limit int) ([]*contracts.ReportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT id, kind, site_url, target, output_path, row_count, error_count, started_at, completed_at
		FROM report_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list report runs: %w", err)
	}
	defer rows.Close()

	var runs []*contracts.ReportRun
	for rows.Next() {
		var (
			run       contracts.ReportRun
			completed sql.NullTime
		)
		if err := rows.Scan(
			&run.ID, &run.Kind, &run.SiteURL, &run.Target, &run.OutputPath,
			&run.RowCount, &run.ErrorCount, &run.StartedAt, &completed,
		); err != nil {
			return nil, fmt.Errorf("scan report run: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			run.CompletedAt = &t
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report runs: %w", err)
	}

	return runs, nil
}
