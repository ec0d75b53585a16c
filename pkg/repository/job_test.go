package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobimport/pkg/domain"
)

const testSource = "https://jobicy.com/?feed=job_feed"

func testJob(id, title string) domain.JobPosting {
	return domain.JobPosting{
		JobID:         id,
		Title:         title,
		Company:       "Acme",
		Location:      "Remote",
		Description:   "build things",
		URL:           "https://example.com/jobs/" + id,
		PublishedDate: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		JobType:       "Full-time",
		Category:      "General",
		Source:        testSource,
		RawPayload:    []byte(`{"guid":"` + id + `"}`),
		Active:        true,
	}
}

func TestJobRepository_BulkUpsertJobs(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	testBulkUpsert(t, repos)
}

func TestJobRepository_BulkUpsertJobsPostgres(t *testing.T) {
	testBulkUpsert(t, setupPostgres(t))
}

func testBulkUpsert(t *testing.T, repos *Repositories) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert new", func(t *testing.T) {
		res, err := repos.Job.BulkUpsertJobs(ctx, []domain.JobPosting{testJob("1", "Go Dev"), testJob("2", "SRE")})
		require.NoError(t, err)
		assert.Equal(t, domain.UpsertResult{Inserted: 2}, res)

		j, err := repos.Job.GetJob(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Go Dev", j.Title)
		assert.Equal(t, "Acme", j.Company)
		assert.True(t, j.PublishedDate.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
		assert.JSONEq(t, `{"guid":"1"}`, string(j.RawPayload))
		assert.True(t, j.Active)
	})

	t.Run("same content is unchanged", func(t *testing.T) {
		res, err := repos.Job.BulkUpsertJobs(ctx, []domain.JobPosting{testJob("1", "Go Dev"), testJob("2", "SRE")})
		require.NoError(t, err)
		assert.Equal(t, domain.UpsertResult{Unchanged: 2}, res)
	})

	t.Run("mixed insert, modify and unchanged", func(t *testing.T) {
		res, err := repos.Job.BulkUpsertJobs(ctx, []domain.JobPosting{
			testJob("1", "Senior Go Dev"), testJob("2", "SRE"), testJob("3", "QA"),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.UpsertResult{Inserted: 1, Modified: 1, Unchanged: 1}, res)

		j, err := repos.Job.GetJob(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Senior Go Dev", j.Title)
	})

	t.Run("date change alone is not significant", func(t *testing.T) {
		job := testJob("2", "SRE")
		job.PublishedDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		res, err := repos.Job.BulkUpsertJobs(ctx, []domain.JobPosting{job})
		require.NoError(t, err)
		assert.Equal(t, domain.UpsertResult{Unchanged: 1}, res)
	})

	t.Run("duplicate ids in input keep last", func(t *testing.T) {
		res, err := repos.Job.BulkUpsertJobs(ctx, []domain.JobPosting{
			testJob("4", "first"), testJob("4", "second"), testJob("4", "second"),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Inserted+res.Modified+res.Unchanged)
		assert.Equal(t, domain.UpsertResult{Inserted: 1, Modified: 1, Unchanged: 1}, res)

		j, err := repos.Job.GetJob(ctx, "4")
		require.NoError(t, err)
		assert.Equal(t, "second", j.Title)
	})

	t.Run("empty input", func(t *testing.T) {
		res, err := repos.Job.BulkUpsertJobs(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.UpsertResult{}, res)
	})

	t.Run("large input split across statements", func(t *testing.T) {
		jobs := make([]domain.JobPosting, 0, maxRowsPerStatement+50)
		for i := range maxRowsPerStatement + 50 {
			jobs = append(jobs, testJob(fmt.Sprintf("bulk-%d", i), "Bulk"))
		}
		res, err := repos.Job.BulkUpsertJobs(ctx, jobs)
		require.NoError(t, err)
		assert.Equal(t, domain.UpsertResult{Inserted: maxRowsPerStatement + 50}, res)

		count, err := repos.Job.CountJobs(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, int64(4+maxRowsPerStatement+50), count)
	})

	t.Run("missing job", func(t *testing.T) {
		_, err := repos.Job.GetJob(ctx, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestJobRepository_BulkUpsertJobsClosedDB(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	cleanup()

	_, err := repos.Job.BulkUpsertJobs(context.Background(), []domain.JobPosting{testJob("1", "x")})
	require.Error(t, err)
}

func TestDedupJobs(t *testing.T) {
	changed := testJob("a", "changed")
	rows, res := dedupJobs([]domain.JobPosting{testJob("a", "x"), testJob("b", "y"), changed, testJob("b", "y")})
	require.Len(t, rows, 2)
	assert.Equal(t, "changed", rows[0].Title)
	assert.Equal(t, "b", rows[1].JobID)
	assert.Equal(t, domain.UpsertResult{Modified: 1, Unchanged: 1}, res)

	rows, _ = dedupJobs([]domain.JobPosting{{JobID: "c"}})
	assert.Equal(t, "{}", rows[0].RawPayload)
}
