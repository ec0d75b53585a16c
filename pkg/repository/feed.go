package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/jobimport/pkg/domain"
)

// FeedRepository handles feed source database operations
type FeedRepository struct {
	db *sqlx.DB
}

// feedSQL represents a feed source for SQL operations
type feedSQL struct {
	URL             string     `db:"url"`
	Name            string     `db:"name"`
	Category        string     `db:"category"`
	JobType         string     `db:"job_type"`
	Region          string     `db:"region"`
	Active          bool       `db:"active"`
	LastFetchedAt   *time.Time `db:"last_fetched_at"`
	LastFetchStatus string     `db:"last_fetch_status"`
	LastError       string     `db:"last_error"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

const feedColumns = `url, name, category, job_type, region, active, last_fetched_at, last_fetch_status,
	last_error, created_at, updated_at`

// NewFeedRepository creates a new feed repository
func NewFeedRepository(database *sqlx.DB) *FeedRepository {
	return &FeedRepository{db: database}
}

// UpsertFeeds inserts feed sources or refreshes descriptive fields of existing ones, keyed by url.
// The active flag of an existing feed is left untouched so a feed disabled in storage stays disabled.
func (r *FeedRepository) UpsertFeeds(ctx context.Context, feeds []domain.FeedSource) error {
	if len(feeds) == 0 {
		return nil
	}
	query := `
		INSERT INTO feeds (url, name, category, job_type, region, active, last_fetch_status, created_at, updated_at)
		VALUES (:url, :name, :category, :job_type, :region, :active, :last_fetch_status, :updated_at, :updated_at)
		ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			job_type = excluded.job_type,
			region = excluded.region,
			updated_at = excluded.updated_at`

	now := time.Now().UTC()
	return withLockRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		for _, f := range feeds {
			rec := feedSQL{URL: f.URL, Name: f.Name, Category: f.Category, JobType: f.JobType, Region: f.Region,
				Active: f.Active, LastFetchStatus: string(domain.FetchPending), UpdatedAt: now}
			if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
				return fmt.Errorf("upsert feed %s: %w", f.URL, err)
			}
		}
		return tx.Commit()
	})
}

// GetActiveFeeds returns all active feed sources ordered by url
func (r *FeedRepository) GetActiveFeeds(ctx context.Context) ([]domain.FeedSource, error) {
	return r.selectFeeds(ctx, "SELECT "+feedColumns+" FROM feeds WHERE active = ? ORDER BY url", true)
}

// GetFeeds returns all feed sources ordered by url
func (r *FeedRepository) GetFeeds(ctx context.Context) ([]domain.FeedSource, error) {
	return r.selectFeeds(ctx, "SELECT "+feedColumns+" FROM feeds ORDER BY url")
}

// GetFeed returns a single feed source by url
func (r *FeedRepository) GetFeed(ctx context.Context, url string) (*domain.FeedSource, error) {
	var rec feedSQL
	err := r.db.GetContext(ctx, &rec, r.db.Rebind("SELECT "+feedColumns+" FROM feeds WHERE url = ?"), url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feed %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	res := rec.toDomain()
	return &res, nil
}

// MarkFeedsPending sets last fetch time and pending status for the given feed urls
func (r *FeedRepository) MarkFeedsPending(ctx context.Context, urls []string, at time.Time) error {
	if len(urls) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE feeds SET last_fetched_at = ?, last_fetch_status = ?, updated_at = ?
		WHERE url IN (?)`, at.UTC(), string(domain.FetchPending), time.Now().UTC(), urls)
	if err != nil {
		return fmt.Errorf("build mark pending query: %w", err)
	}
	query = r.db.Rebind(query)
	return withLockRetry(ctx, func() error {
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("mark feeds pending: %w", err)
		}
		return nil
	})
}

// UpdateFeedResult records the outcome of the last run for a feed source
func (r *FeedRepository) UpdateFeedResult(ctx context.Context, url string, status domain.FetchStatus, errMsg string) error {
	query := r.db.Rebind(`UPDATE feeds SET last_fetch_status = ?, last_error = ?, updated_at = ? WHERE url = ?`)
	return withLockRetry(ctx, func() error {
		if _, err := r.db.ExecContext(ctx, query, string(status), errMsg, time.Now().UTC(), url); err != nil {
			return fmt.Errorf("update feed result: %w", err)
		}
		return nil
	})
}

// SetFeedActive enables or disables a feed source
func (r *FeedRepository) SetFeedActive(ctx context.Context, url string, active bool) error {
	query := r.db.Rebind(`UPDATE feeds SET active = ?, updated_at = ? WHERE url = ?`)
	var affected int64
	err := withLockRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), url)
		if err != nil {
			return fmt.Errorf("set feed active: %w", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("feed %s: %w", url, ErrNotFound)
	}
	return nil
}

func (r *FeedRepository) selectFeeds(ctx context.Context, query string, args ...any) ([]domain.FeedSource, error) {
	var recs []feedSQL
	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select feeds: %w", err)
	}
	res := make([]domain.FeedSource, 0, len(recs))
	for _, rec := range recs {
		res = append(res, rec.toDomain())
	}
	return res, nil
}

func (f feedSQL) toDomain() domain.FeedSource {
	return domain.FeedSource{
		URL:             f.URL,
		Name:            f.Name,
		Category:        f.Category,
		JobType:         f.JobType,
		Region:          f.Region,
		Active:          f.Active,
		LastFetchedAt:   f.LastFetchedAt,
		LastFetchStatus: domain.FetchStatus(f.LastFetchStatus),
		LastError:       f.LastError,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}
