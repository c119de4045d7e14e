package contracts

import (
	"context"
	"time"
)

// ReportRun is one persisted report execution.
type ReportRun struct {
	ID          int64
	Kind        string // "folder_stats" or "user_permissions"
	SiteURL     string
	Target      string // library title or target user
	OutputPath  string
	RowCount    int64
	ErrorCount  int64
	StartedAt   time.Time
	CompletedAt *time.Time
}

// RunFailure records one folder or library that could not be processed during a run.
type RunFailure struct {
	RunID  int64
	Name   string
	Reason string
}

// RunRepository persists report run history.
type RunRepository interface {
	// CreateRun inserts a new run and populates its ID.
	CreateRun(ctx context.Context, run *ReportRun) error

	// CompleteRun records completion time and final counters for a run.
	CompleteRun(ctx context.Context, runID int64, rowCount, errorCount int64) error

	// SaveFailure records a per-folder failure for a run.
	SaveFailure(ctx context.Context, failure *RunFailure) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*ReportRun, error)
}
