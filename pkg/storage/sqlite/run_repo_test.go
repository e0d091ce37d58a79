package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRunRepo(t *testing.T) storage.RunRepository {
	dsn := filepath.Join(t.TempDir(), "history.db")
	repo, err := NewRunRepoFromDSN(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func failedReport(id string, startedAt time.Time) *pipeline.Report {
	cssErr := errors.New("$ npm run build:css failed with exit status 1")
	return &pipeline.Report{
		RunID:     id,
		Name:      "saucer bundle all",
		StartedAt: startedAt,
		Elapsed:   320 * time.Millisecond,
		Err:       cssErr,
		Stages: []pipeline.StageReport{
			{Number: 1, Description: "stage [1/3]", Prefix: "🪩 ", Outcome: task.Outcome{Elapsed: 120 * time.Millisecond}},
			{Number: 2, Description: "stage [2/3]", Prefix: "🪩 ", Outcome: task.Outcome{
				Elapsed: 200 * time.Millisecond,
				Causes:  []task.Cause{{Description: "tailwindcss", Err: cssErr}},
				Err:     cssErr,
			}},
			{Number: 3, Description: "stage [3/3]", Prefix: "🪩 ", Skipped: true},
		},
	}
}

func TestRunRepo_SaveAndGet(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveReport(ctx, failedReport("run-1", started)))

	rec, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "saucer bundle all", rec.Name)
	assert.Equal(t, pipeline.StatusFailed, rec.Status)
	assert.Equal(t, 320*time.Millisecond, rec.Elapsed)
	assert.True(t, started.Equal(rec.StartedAt))
	assert.Contains(t, rec.Error, "build:css")

	require.Len(t, rec.Stages, 3)
	assert.Equal(t, pipeline.StatusSuccess, rec.Stages[0].Status)
	assert.Equal(t, pipeline.StatusFailed, rec.Stages[1].Status)
	assert.Equal(t, pipeline.StatusSkipped, rec.Stages[2].Status)
	require.Len(t, rec.Stages[1].Causes, 1)
	assert.Equal(t, "tailwindcss: $ npm run build:css failed with exit status 1", rec.Stages[1].Causes[0])
	assert.Empty(t, rec.Stages[0].Causes)
}

func TestRunRepo_SaveOverwrites(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	report := failedReport("run-1", time.Now())
	require.NoError(t, repo.SaveReport(ctx, report))

	report.Err = nil
	report.Stages = report.Stages[:1]
	require.NoError(t, repo.SaveReport(ctx, report))

	rec, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSuccess, rec.Status)
	assert.Empty(t, rec.Error)
	assert.Len(t, rec.Stages, 1)

	_, total, err := repo.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRunRepo_GetMissing(t *testing.T) {
	repo := setupRunRepo(t)
	_, err := repo.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestRunRepo_ListNewestFirst(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := failedReport(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.SaveReport(ctx, r))
	}

	page, total, err := repo.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "run-4", page[0].ID)
	assert.Equal(t, "run-3", page[1].ID)
	assert.Empty(t, page[0].Stages)

	page, _, err = repo.ListRuns(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "run-0", page[0].ID)

	page, _, err = repo.ListRuns(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 5)
}

func TestRunRepo_RejectsReportWithoutID(t *testing.T) {
	repo := setupRunRepo(t)
	assert.Error(t, repo.SaveReport(context.Background(), &pipeline.Report{}))
}

func TestRunRepo_InMemory(t *testing.T) {
	repo, err := NewRunRepoFromDSN(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.SaveReport(ctx, failedReport("mem", time.Now())))
	rec, err := repo.GetRun(ctx, "mem")
	require.NoError(t, err)
	assert.Len(t, rec.Stages, 3)
}
