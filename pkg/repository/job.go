package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/jobimport/pkg/domain"
)

// maxRowsPerStatement bounds a single multi-row insert, keeps bind variables under engine limits
const maxRowsPerStatement = 1000

// jobColumns are the insert columns of the jobs table, order matches jobSQL.args
var jobColumns = []string{"job_id", "title", "company", "location", "description", "url", "published_at",
	"job_type", "category", "region", "salary", "source", "raw_payload", "active", "created_at", "updated_at"}

// significantColumns are compared on conflict, a row is rewritten only if one of them differs
var significantColumns = []string{"title", "company", "location", "description", "url", "job_type",
	"category", "region", "salary", "source", "active"}

// JobRepository handles job posting database operations
type JobRepository struct {
	db      *sqlx.DB
	dialect dialect
}

// jobSQL represents a job posting for SQL operations
type jobSQL struct {
	JobID       string    `db:"job_id"`
	Title       string    `db:"title"`
	Company     string    `db:"company"`
	Location    string    `db:"location"`
	Description string    `db:"description"`
	URL         string    `db:"url"`
	PublishedAt time.Time `db:"published_at"`
	JobType     string    `db:"job_type"`
	Category    string    `db:"category"`
	Region      string    `db:"region"`
	Salary      string    `db:"salary"`
	Source      string    `db:"source"`
	RawPayload  string    `db:"raw_payload"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewJobRepository creates a new job repository
func NewJobRepository(database *sqlx.DB, d dialect) *JobRepository {
	return &JobRepository{db: database, dialect: d}
}

// BulkUpsertJobs writes postings keyed by job id in a single transaction.
// New ids are inserted, existing rows are updated only when a significant field changed.
// Repeated ids in the input collapse to the last occurrence, the superseded entries are counted
// as modified or unchanged relative to the one that replaced them.
func (r *JobRepository) BulkUpsertJobs(ctx context.Context, jobs []domain.JobPosting) (domain.UpsertResult, error) {
	if len(jobs) == 0 {
		return domain.UpsertResult{}, nil
	}

	unique, res := dedupJobs(jobs)
	now := time.Now().UTC()

	var written domain.UpsertResult
	err := withLockRetry(ctx, func() error {
		written = domain.UpsertResult{}
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		// split to stay under the bind parameter limit
		for start := 0; start < len(unique); start += maxRowsPerStatement {
			end := min(start+maxRowsPerStatement, len(unique))
			part, err := r.upsertPart(ctx, tx, unique[start:end], now)
			if err != nil {
				return err
			}
			written.Inserted += part.Inserted
			written.Modified += part.Modified
			written.Unchanged += part.Unchanged
		}
		return tx.Commit()
	})
	if err != nil {
		return domain.UpsertResult{}, err
	}

	res.Inserted += written.Inserted
	res.Modified += written.Modified
	res.Unchanged += written.Unchanged
	return res, nil
}

// upsertPart runs one multi-row upsert statement and classifies its rows
func (r *JobRepository) upsertPart(ctx context.Context, tx *sqlx.Tx, jobs []jobSQL, now time.Time) (domain.UpsertResult, error) {
	query, args := r.upsertQuery(jobs, now)

	if r.dialect.name == postgresDialect.name {
		// xmax is zero only for freshly inserted tuples, rows skipped by the conflict filter are not returned
		var flags []bool
		if err := tx.SelectContext(ctx, &flags, query+" RETURNING (xmax = 0)", args...); err != nil {
			return domain.UpsertResult{}, fmt.Errorf("bulk upsert jobs: %w", err)
		}
		res := domain.UpsertResult{Unchanged: len(jobs) - len(flags)}
		for _, inserted := range flags {
			if inserted {
				res.Inserted++
				continue
			}
			res.Modified++
		}
		return res, nil
	}

	// sqlite has no xmax, count rows already present before the write
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.JobID)
	}
	existsQuery, existsArgs, err := sqlx.In("SELECT COUNT(*) FROM jobs WHERE job_id IN (?)", ids)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("build existing ids query: %w", err)
	}
	var existing int
	if err := tx.GetContext(ctx, &existing, tx.Rebind(existsQuery), existsArgs...); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("count existing jobs: %w", err)
	}

	execRes, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("bulk upsert jobs: %w", err)
	}
	affected, err := execRes.RowsAffected()
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("get affected rows: %w", err)
	}

	// affected counts inserts and updates, rows skipped by the conflict filter are unchanged
	inserted := len(jobs) - existing
	modified := int(affected) - inserted
	return domain.UpsertResult{Inserted: inserted, Modified: modified, Unchanged: existing - modified}, nil
}

// upsertQuery builds a multi-row insert with a conditional conflict update
func (r *JobRepository) upsertQuery(jobs []jobSQL, now time.Time) (query string, args []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO jobs (" + strings.Join(jobColumns, ", ") + ") VALUES ")

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(jobColumns)), ", ") + ")"
	args = make([]any, 0, len(jobs)*len(jobColumns))
	for i, j := range jobs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(row)
		args = append(args, j.JobID, j.Title, j.Company, j.Location, j.Description, j.URL, j.PublishedAt,
			j.JobType, j.Category, j.Region, j.Salary, j.Source, j.RawPayload, j.Active, now, now)
	}

	// update everything but the key and creation time, only when a significant column differs
	sets := make([]string, 0, len(jobColumns))
	for _, c := range jobColumns {
		if c == "job_id" || c == "created_at" {
			continue
		}
		sets = append(sets, c+" = excluded."+c)
	}
	conds := make([]string, 0, len(significantColumns))
	for _, c := range significantColumns {
		conds = append(conds, "jobs."+c+" "+r.dialect.differs+" excluded."+c)
	}

	sb.WriteString(" ON CONFLICT(job_id) DO UPDATE SET " + strings.Join(sets, ", "))
	sb.WriteString(" WHERE " + strings.Join(conds, " OR "))
	return r.db.Rebind(sb.String()), args
}

// GetJob returns a stored posting by job id
func (r *JobRepository) GetJob(ctx context.Context, jobID string) (*domain.JobPosting, error) {
	var rec jobSQL
	query := r.db.Rebind("SELECT " + strings.Join(jobColumns, ", ") + " FROM jobs WHERE job_id = ?")
	err := r.db.GetContext(ctx, &rec, query, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	res := rec.toDomain()
	return &res, nil
}

// CountJobs returns the number of stored postings, optionally limited to one source
func (r *JobRepository) CountJobs(ctx context.Context, source string) (int64, error) {
	query, args := "SELECT COUNT(*) FROM jobs", []any{}
	if source != "" {
		query, args = "SELECT COUNT(*) FROM jobs WHERE source = ?", []any{source}
	}
	var count int64
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// dedupJobs converts postings to rows keeping the last occurrence of every job id.
// The returned result accounts for the dropped duplicates.
func dedupJobs(jobs []domain.JobPosting) ([]jobSQL, domain.UpsertResult) {
	var res domain.UpsertResult
	pos := make(map[string]int, len(jobs))
	rows := make([]jobSQL, 0, len(jobs))
	for _, j := range jobs {
		rec := fromDomainJob(j)
		idx, seen := pos[rec.JobID]
		if !seen {
			pos[rec.JobID] = len(rows)
			rows = append(rows, rec)
			continue
		}
		if rows[idx].sameAs(rec) {
			res.Unchanged++
		} else {
			res.Modified++
		}
		rows[idx] = rec
	}
	return rows, res
}

func fromDomainJob(j domain.JobPosting) jobSQL {
	raw := string(j.RawPayload)
	if raw == "" {
		raw = "{}"
	}
	return jobSQL{
		JobID:       j.JobID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Description: j.Description,
		URL:         j.URL,
		PublishedAt: j.PublishedDate.UTC(),
		JobType:     j.JobType,
		Category:    j.Category,
		Region:      j.Region,
		Salary:      j.Salary,
		Source:      j.Source,
		RawPayload:  raw,
		Active:      j.Active,
	}
}

// sameAs compares significant fields only
func (j jobSQL) sameAs(o jobSQL) bool {
	return j.Title == o.Title && j.Company == o.Company && j.Location == o.Location &&
		j.Description == o.Description && j.URL == o.URL && j.JobType == o.JobType &&
		j.Category == o.Category && j.Region == o.Region && j.Salary == o.Salary &&
		j.Source == o.Source && j.Active == o.Active
}

func (j jobSQL) toDomain() domain.JobPosting {
	return domain.JobPosting{
		JobID:         j.JobID,
		Title:         j.Title,
		Company:       j.Company,
		Location:      j.Location,
		Description:   j.Description,
		URL:           j.URL,
		PublishedDate: j.PublishedAt,
		JobType:       j.JobType,
		Category:      j.Category,
		Region:        j.Region,
		Salary:        j.Salary,
		Source:        j.Source,
		RawPayload:    []byte(j.RawPayload),
		Active:        j.Active,
	}
}
