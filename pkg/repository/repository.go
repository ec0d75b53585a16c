package repository

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver registered as "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed schema_sqlite.sql schema_postgres.sql
var schemaFS embed.FS

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// dialect holds the bits of SQL which differ between the supported engines
type dialect struct {
	name     string
	driver   string
	schema   string
	greatest string // two-argument max function
	differs  string // null-safe inequality operator
}

var (
	sqliteDialect   = dialect{name: "sqlite", driver: "sqlite", schema: "schema_sqlite.sql", greatest: "MAX", differs: "IS NOT"}
	postgresDialect = dialect{name: "postgres", driver: "pgx", schema: "schema_postgres.sql", greatest: "GREATEST", differs: "IS DISTINCT FROM"}
)

// Repositories contains all repository instances
type Repositories struct {
	Feed *FeedRepository
	Job  *JobRepository
	Run  *RunRepository
	DB   *sqlx.DB
}

// NewRepositories creates all repositories with a shared database connection.
// DSN starting with postgres:// or postgresql:// selects PostgreSQL, anything else is a SQLite DSN.
func NewRepositories(ctx context.Context, cfg Config) (*Repositories, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:jobimport.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	d := sqliteDialect
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		d = postgresDialect
	}

	db, err := sqlx.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if d.name == sqliteDialect.name {
		if err := setPragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := initSchema(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Repositories{
		Feed: NewFeedRepository(db),
		Job:  NewJobRepository(db, d),
		Run:  NewRunRepository(db, d),
		DB:   db,
	}, nil
}

// Close closes the database connection
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// Ping verifies the database connection
func (r *Repositories) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func setPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sqlx.DB, d dialect) error {
	schema, err := schemaFS.ReadFile(d.schema)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema: %w", err)
		}
	}
	return nil
}
