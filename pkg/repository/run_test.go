package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobimport/pkg/domain"
)

func TestRunRepository_Lifecycle(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	testRunLifecycle(t, repos)
}

func TestRunRepository_LifecyclePostgres(t *testing.T) {
	testRunLifecycle(t, setupPostgres(t))
}

func testRunLifecycle(t *testing.T, repos *Repositories) {
	t.Helper()
	ctx := context.Background()

	run, err := repos.Run.CreateRun(ctx, testSource)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, domain.RunProcessing, run.Status)
	assert.Equal(t, testSource, run.FileName)
	assert.Nil(t, run.EndTime)

	t.Run("checkpoint counters never decrease", func(t *testing.T) {
		require.NoError(t, repos.Run.CheckpointRun(ctx, run.ID, domain.Checkpoint{TotalFetched: 250, TotalImported: 100, NewJobs: 100}))
		require.NoError(t, repos.Run.CheckpointRun(ctx, run.ID, domain.Checkpoint{TotalFetched: 250, TotalImported: 50, NewJobs: 50}))

		got, err := repos.Run.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunProcessing, got.Status)
		assert.Equal(t, 250, got.TotalFetched)
		assert.Equal(t, 100, got.TotalImported)
		assert.Equal(t, 100, got.NewJobs)
	})

	t.Run("finalize sets end time and duration", func(t *testing.T) {
		time.Sleep(5 * time.Millisecond)
		final, err := repos.Run.FinalizeRun(ctx, domain.ImportRun{
			ID: run.ID, Status: domain.RunCompleted, TotalFetched: 250, TotalImported: 249, NewJobs: 200, UpdatedJobs: 49,
			FailedJobs:        1,
			FailedJobsDetails: []domain.FailedJob{{JobID: "x", Reason: "url is required"}},
		})
		require.NoError(t, err)
		require.NotNil(t, final.EndTime)
		assert.Positive(t, final.Duration)

		got, err := repos.Run.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, got.Status)
		assert.Equal(t, 249, got.TotalImported)
		assert.Equal(t, 1, got.FailedJobs)
		assert.Equal(t, []domain.FailedJob{{JobID: "x", Reason: "url is required"}}, got.FailedJobsDetails)
		require.NotNil(t, got.EndTime)
		assert.False(t, got.EndTime.Before(got.StartTime))
	})

	t.Run("finalize happens once", func(t *testing.T) {
		_, err := repos.Run.FinalizeRun(ctx, domain.ImportRun{ID: run.ID, Status: domain.RunFailed, Error: "late"})
		require.ErrorIs(t, err, ErrRunFinalized)

		got, err := repos.Run.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, got.Status)
		assert.Empty(t, got.Error)
	})

	t.Run("checkpoint after finalize ignored", func(t *testing.T) {
		require.NoError(t, repos.Run.CheckpointRun(ctx, run.ID, domain.Checkpoint{TotalFetched: 999, TotalImported: 999}))
		got, err := repos.Run.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, 249, got.TotalImported)
	})

	t.Run("finalize to non terminal status rejected", func(t *testing.T) {
		r, err := repos.Run.CreateRun(ctx, testSource)
		require.NoError(t, err)
		_, err = repos.Run.FinalizeRun(ctx, domain.ImportRun{ID: r.ID, Status: domain.RunProcessing})
		require.ErrorIs(t, err, domain.ErrInvalidTransition)

		failed, err := repos.Run.FinalizeRun(ctx, domain.ImportRun{ID: r.ID, Status: domain.RunFailed, Error: "http status 500"})
		require.NoError(t, err)
		assert.Equal(t, "http status 500", failed.Error)
		assert.Zero(t, failed.TotalFetched)
		assert.Empty(t, failed.FailedJobsDetails)
	})

	t.Run("finalize unknown run", func(t *testing.T) {
		_, err := repos.Run.FinalizeRun(ctx, domain.ImportRun{ID: "missing", Status: domain.RunFailed})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list and aggregate", func(t *testing.T) {
		runs, err := repos.Run.ListRuns(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.NotEqual(t, run.ID, runs[0].ID, "newest first")

		runs, err = repos.Run.ListRuns(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, runs, 1)

		agg, err := repos.Run.GetAggregateStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.AggregateStats{Runs: 2, TotalFetched: 250, TotalImported: 249, NewJobs: 200,
			UpdatedJobs: 49, FailedJobs: 1}, agg)
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := repos.Run.GetRun(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRunRepository_AggregateEmpty(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	agg, err := repos.Run.GetAggregateStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.AggregateStats{}, agg)
}
