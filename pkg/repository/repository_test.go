package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobimport/pkg/domain"
)

// setupTestDB creates an in-memory sqlite store
func setupTestDB(t *testing.T) (repos *Repositories, cleanup func()) {
	t.Helper()
	cfg := Config{
		DSN:             ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 30 * time.Second,
	}
	repos, err := NewRepositories(context.Background(), cfg)
	require.NoError(t, err)
	return repos, func() { assert.NoError(t, repos.Close()) }
}

// setupPostgres connects to the database from JOBIMPORT_TEST_PG_DSN and starts from empty tables
func setupPostgres(t *testing.T) *Repositories {
	t.Helper()
	dsn := os.Getenv("JOBIMPORT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("JOBIMPORT_TEST_PG_DSN not set")
	}
	repos, err := NewRepositories(context.Background(), Config{DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, repos.Close()) })
	for _, tbl := range []string{"jobs", "import_runs", "feeds"} {
		_, err = repos.DB.Exec("DELETE FROM " + tbl)
		require.NoError(t, err)
	}
	return repos
}

func TestRepositories_Integration(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repos.Ping(ctx))

	src := "https://example.com/feed.xml"
	require.NoError(t, repos.Feed.UpsertFeeds(ctx, []domain.FeedSource{{URL: src, Name: "Example", Active: true}}))

	run, err := repos.Run.CreateRun(ctx, src)
	require.NoError(t, err)

	res, err := repos.Job.BulkUpsertJobs(ctx, []domain.JobPosting{
		{JobID: "1", Title: "Go Developer", URL: "https://example.com/1", Source: src, Active: true},
		{JobID: "2", Title: "SRE", URL: "https://example.com/2", Source: src, Active: true},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{Inserted: 2}, res)

	final, err := repos.Run.FinalizeRun(ctx, domain.ImportRun{ID: run.ID, Status: domain.RunCompleted,
		TotalFetched: 2, TotalImported: 2, NewJobs: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, final.Status)

	require.NoError(t, repos.Feed.UpdateFeedResult(ctx, src, domain.FetchSuccess, ""))
	feed, err := repos.Feed.GetFeed(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, domain.FetchSuccess, feed.LastFetchStatus)

	agg, err := repos.Run.GetAggregateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AggregateStats{Runs: 1, TotalFetched: 2, TotalImported: 2, NewJobs: 2}, agg)

	count, err := repos.Job.CountJobs(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNewRepositories_InvalidDSN(t *testing.T) {
	cfg := Config{
		DSN: "invalid://database/url",
	}

	_, err := NewRepositories(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRepositories_Close(t *testing.T) {
	cfg := Config{
		DSN:             ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 30 * time.Second,
	}

	repos, err := NewRepositories(context.Background(), cfg)
	require.NoError(t, err)

	assert.NoError(t, repos.Close())
	assert.NoError(t, repos.Close())
}

func TestRepositories_SchemaIdempotent(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, initSchema(context.Background(), repos.DB, sqliteDialect))
	require.NoError(t, initSchema(context.Background(), repos.DB, sqliteDialect))
}

func TestIsLockError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"database is locked (5) (SQLITE_BUSY)", true},
		{"database table is locked", true},
		{"ERROR: deadlock detected (SQLSTATE 40P01)", true},
		{"ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)", true},
		{"no such table: jobs", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isLockError(assertErr(tt.msg)), tt.msg)
	}
	assert.False(t, isLockError(nil))
}

func TestWithLockRetry(t *testing.T) {
	t.Run("retries lock errors", func(t *testing.T) {
		calls := 0
		err := withLockRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return assertErr("database is locked")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on other errors", func(t *testing.T) {
		calls := 0
		err := withLockRetry(context.Background(), func() error {
			calls++
			return assertErr("constraint failed")
		})
		require.EqualError(t, err, "constraint failed")
		assert.Equal(t, 1, calls)
	})
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
