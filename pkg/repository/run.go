package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/jobimport/pkg/domain"
)

// ErrRunFinalized is returned when finalizing a run which already reached a terminal status
var ErrRunFinalized = errors.New("run already finalized")

// RunRepository handles import run records
type RunRepository struct {
	db      *sqlx.DB
	dialect dialect
}

// runSQL represents an import run for SQL operations
type runSQL struct {
	ID            string     `db:"id"`
	FileName      string     `db:"file_name"`
	Status        string     `db:"status"`
	StartTime     time.Time  `db:"start_time"`
	EndTime       *time.Time `db:"end_time"`
	DurationMs    *int64     `db:"duration_ms"`
	TotalFetched  int        `db:"total_fetched"`
	TotalImported int        `db:"total_imported"`
	NewJobs       int        `db:"new_jobs"`
	UpdatedJobs   int        `db:"updated_jobs"`
	FailedJobs    int        `db:"failed_jobs"`
	FailedDetails string     `db:"failed_details"`
	Error         string     `db:"error"`
}

const runColumns = `id, file_name, status, start_time, end_time, duration_ms, total_fetched, total_imported,
	new_jobs, updated_jobs, failed_jobs, failed_details, error`

// NewRunRepository creates a new run repository
func NewRunRepository(database *sqlx.DB, d dialect) *RunRepository {
	return &RunRepository{db: database, dialect: d}
}

// CreateRun inserts a new run for the source in processing status
func (r *RunRepository) CreateRun(ctx context.Context, fileName string) (*domain.ImportRun, error) {
	rec := runSQL{
		ID:            uuid.NewString(),
		FileName:      fileName,
		Status:        string(domain.RunProcessing),
		StartTime:     time.Now().UTC(),
		FailedDetails: "[]",
	}
	query := `INSERT INTO import_runs (id, file_name, status, start_time, failed_details)
		VALUES (:id, :file_name, :status, :start_time, :failed_details)`
	err := withLockRetry(ctx, func() error {
		if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckpointRun stores in-progress counters of a processing run. Counters never decrease,
// a checkpoint arriving after finalize is ignored.
func (r *RunRepository) CheckpointRun(ctx context.Context, id string, cp domain.Checkpoint) error {
	g := r.dialect.greatest
	query := r.db.Rebind(fmt.Sprintf(`UPDATE import_runs SET
		total_fetched = %[1]s(total_fetched, ?),
		total_imported = %[1]s(total_imported, ?),
		new_jobs = %[1]s(new_jobs, ?),
		updated_jobs = %[1]s(updated_jobs, ?),
		failed_jobs = %[1]s(failed_jobs, ?)
		WHERE id = ? AND status = ?`, g))
	return withLockRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query, cp.TotalFetched, cp.TotalImported, cp.NewJobs, cp.UpdatedJobs,
			cp.FailedJobs, id, string(domain.RunProcessing))
		if err != nil {
			return fmt.Errorf("checkpoint run: %w", err)
		}
		return nil
	})
}

// FinalizeRun moves the run to a terminal status with final counters, failure details and error.
// End time and duration are set here. Only the first finalize wins, later calls get ErrRunFinalized.
func (r *RunRepository) FinalizeRun(ctx context.Context, run domain.ImportRun) (*domain.ImportRun, error) {
	if !run.Status.Terminal() {
		return nil, fmt.Errorf("finalize run %s as %s: %w", run.ID, run.Status, domain.ErrInvalidTransition)
	}

	details := run.FailedJobsDetails
	if details == nil {
		details = []domain.FailedJob{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal failed details: %w", err)
	}

	var final *domain.ImportRun
	err = withLockRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		// read current state inside the tx, a concurrent finalize loses here
		var cur runSQL
		err = tx.GetContext(ctx, &cur, r.db.Rebind("SELECT "+runColumns+" FROM import_runs WHERE id = ?"), run.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if domain.RunStatus(cur.Status).Terminal() {
			return fmt.Errorf("run %s is %s: %w", run.ID, cur.Status, ErrRunFinalized)
		}
		if !domain.CanTransition(domain.RunStatus(cur.Status), run.Status) {
			return fmt.Errorf("run %s %s -> %s: %w", run.ID, cur.Status, run.Status, domain.ErrInvalidTransition)
		}

		// final counters replace checkpointed ones
		end := time.Now().UTC()
		durMs := end.Sub(cur.StartTime).Milliseconds()
		cur.Status = string(run.Status)
		cur.EndTime = &end
		cur.DurationMs = &durMs
		cur.TotalFetched = run.TotalFetched
		cur.TotalImported = run.TotalImported
		cur.NewJobs = run.NewJobs
		cur.UpdatedJobs = run.UpdatedJobs
		cur.FailedJobs = run.FailedJobs
		cur.FailedDetails = string(detailsJSON)
		cur.Error = run.Error

		query := `UPDATE import_runs SET status = :status, end_time = :end_time, duration_ms = :duration_ms,
			total_fetched = :total_fetched, total_imported = :total_imported, new_jobs = :new_jobs,
			updated_jobs = :updated_jobs, failed_jobs = :failed_jobs, failed_details = :failed_details, error = :error
			WHERE id = :id AND status IN ('pending', 'processing')`
		if _, err := tx.NamedExecContext(ctx, query, cur); err != nil {
			return fmt.Errorf("finalize run: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit finalize: %w", err)
		}
		res, err := cur.toDomain()
		if err != nil {
			return err
		}
		final = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

// GetRun returns a run by id
func (r *RunRepository) GetRun(ctx context.Context, id string) (*domain.ImportRun, error) {
	var rec runSQL
	err := r.db.GetContext(ctx, &rec, r.db.Rebind("SELECT "+runColumns+" FROM import_runs WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	res, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListRuns returns the most recent runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = 10
	}
	var recs []runSQL
	query := r.db.Rebind("SELECT " + runColumns + " FROM import_runs ORDER BY start_time DESC LIMIT ?")
	if err := r.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	res := make([]domain.ImportRun, 0, len(recs))
	for _, rec := range recs {
		run, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		res = append(res, run)
	}
	return res, nil
}

// GetAggregateStats sums counters across all recorded runs
func (r *RunRepository) GetAggregateStats(ctx context.Context) (domain.AggregateStats, error) {
	var res domain.AggregateStats
	query := `SELECT COUNT(*) AS runs,
		COALESCE(SUM(total_fetched), 0) AS total_fetched,
		COALESCE(SUM(total_imported), 0) AS total_imported,
		COALESCE(SUM(new_jobs), 0) AS new_jobs,
		COALESCE(SUM(updated_jobs), 0) AS updated_jobs,
		COALESCE(SUM(failed_jobs), 0) AS failed_jobs
		FROM import_runs`
	if err := r.db.GetContext(ctx, &res, query); err != nil {
		return domain.AggregateStats{}, fmt.Errorf("aggregate run stats: %w", err)
	}
	return res, nil
}

func (r runSQL) toDomain() (domain.ImportRun, error) {
	res := domain.ImportRun{
		ID:            r.ID,
		FileName:      r.FileName,
		Status:        domain.RunStatus(r.Status),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TotalFetched:  r.TotalFetched,
		TotalImported: r.TotalImported,
		NewJobs:       r.NewJobs,
		UpdatedJobs:   r.UpdatedJobs,
		FailedJobs:    r.FailedJobs,
		Error:         r.Error,
	}
	if r.DurationMs != nil {
		res.Duration = time.Duration(*r.DurationMs) * time.Millisecond
	}
	res.FailedJobsDetails = []domain.FailedJob{}
	if r.FailedDetails != "" {
		if err := json.Unmarshal([]byte(r.FailedDetails), &res.FailedJobsDetails); err != nil {
			return domain.ImportRun{}, fmt.Errorf("unmarshal failed details of run %s: %w", r.ID, err)
		}
	}
	return res, nil
}
