package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreport/database"
	"spreport/domain/contracts"
	"spreport/logging"
)

func newTestRepository(t *testing.T) contracts.RunRepository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:              filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:      1,
		MaxIdleConns:      1,
		ConnMaxLifetime:   time.Hour,
		BusyTimeoutMs:     5000,
		EnableForeignKeys: true,
	}, logging.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSqliteRunRepository(db)
}

func TestRunRepository_CreateAndCompleteRun(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := &contracts.ReportRun{
		Kind:       "folder_stats",
		SiteURL:    "https://contoso.sharepoint.com/sites/team",
		Target:     "Documents",
		OutputPath: "/tmp/report.csv",
	}
	require.NoError(t, repo.CreateRun(ctx, run))
	assert.NotZero(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())

	require.NoError(t, repo.CompleteRun(ctx, run.ID, 12, 1))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	stored := runs[0]
	assert.Equal(t, run.ID, stored.ID)
	assert.Equal(t, "folder_stats", stored.Kind)
	assert.Equal(t, "Documents", stored.Target)
	assert.Equal(t, int64(12), stored.RowCount)
	assert.Equal(t, int64(1), stored.ErrorCount)
	require.NotNil(t, stored.CompletedAt)
}

func TestRunRepository_SaveFailure(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := &contracts.ReportRun{Kind: "folder_stats", SiteURL: "https://x", Target: "Documents"}
	require.NoError(t, repo.CreateRun(ctx, run))

	err := repo.SaveFailure(ctx, &contracts.RunFailure{
		RunID:  run.ID,
		Name:   "Broken",
		Reason: "503 service unavailable",
	})
	assert.NoError(t, err)
}

func TestRunRepository_ListRunsNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := &contracts.ReportRun{Kind: "folder_stats", SiteURL: "https://x", Target: "A", StartedAt: time.Now().UTC().Add(-time.Hour)}
	second := &contracts.ReportRun{Kind: "user_permissions", SiteURL: "https://x", Target: "B", StartedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateRun(ctx, first))
	require.NoError(t, repo.CreateRun(ctx, second))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "B", runs[0].Target)
	assert.Equal(t, "A", runs[1].Target)

	limited, err := repo.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
