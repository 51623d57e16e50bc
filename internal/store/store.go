// Package store persists onboarded applications in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"

	// Import pq for postgres dialect
	_ "github.com/lib/pq"
)

const (
	dialect = "postgres"

	tableName         = "applications"
	columnName        = "name"
	columnCluster     = "cluster"
	columnNamespace   = "namespace"
	columnHelmChart   = "helm_chart"
	columnGitRepo     = "git_repo"
	columnGitRevision = "git_revision"
	columnGitPath     = "git_path"
	columnCreatedAt   = "created_at"
	columnUpdatedAt   = "updated_at"
)

var selectColumns = []string{
	columnName,
	columnCluster,
	columnNamespace,
	columnHelmChart,
	columnGitRepo,
	columnGitRevision,
	columnGitPath,
	columnCreatedAt,
	columnUpdatedAt,
}

// ErrApplicationNotFound is returned when no row matches the name
var ErrApplicationNotFound = errors.New("application not found")

// Application is a row of the applications table
type Application struct {
	Name        string    `db:"name" json:"name"`
	Cluster     string    `db:"cluster" json:"cluster"`
	Namespace   string    `db:"namespace" json:"namespace"`
	HelmChart   string    `db:"helm_chart" json:"helm_chart"`
	GitRepo     string    `db:"git_repo" json:"git_repo"`
	GitRevision string    `db:"git_revision" json:"git_revision"`
	GitPath     string    `db:"git_path" json:"git_path"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Store is the Postgres-backed application store
type Store struct {
	db               *sqlx.DB
	statementBuilder sq.StatementBuilderType
	logger           *slog.Logger
}

// Open connects to url and applies pending migrations
func Open(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, dialect, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := New(db, logger)
	n, err := s.Migrate()
	if err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("applied migrations", "count", n)

	return s, nil
}

// New wraps an existing connection without running migrations
func New(db *sqlx.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		db:               db,
		statementBuilder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:           logger,
	}
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrations returns the schema migrations for the applications table
func Migrations() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_applications",
				Up: []string{
					`
						CREATE TABLE IF NOT EXISTS applications (
							name VARCHAR(253) PRIMARY KEY,
							cluster TEXT NOT NULL,
							namespace TEXT NOT NULL DEFAULT 'default',
							helm_chart TEXT NOT NULL,
							git_repo TEXT NOT NULL,
							git_revision TEXT NOT NULL DEFAULT 'main',
							git_path TEXT NOT NULL DEFAULT '.',
							created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
							updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
						);
						CREATE INDEX IF NOT EXISTS applications_cluster_idx ON applications (cluster);
					`,
				},
				Down: []string{
					`
						DROP TABLE applications;
					`,
				},
			},
		},
	}
}

// Migrate applies pending migrations and returns how many ran
func (s *Store) Migrate() (int, error) {
	n, err := migrate.Exec(s.db.DB, dialect, Migrations(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("failed to migrate database: %w", err)
	}
	return n, nil
}

// Upsert inserts app or updates the row with the same name, bumping updated_at
func (s *Store) Upsert(ctx context.Context, app Application) error {
	if app.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	query, args, err := s.statementBuilder.
		Insert(tableName).
		Columns(
			columnName,
			columnCluster,
			columnNamespace,
			columnHelmChart,
			columnGitRepo,
			columnGitRevision,
			columnGitPath,
		).
		Values(
			app.Name,
			app.Cluster,
			app.Namespace,
			app.HelmChart,
			app.GitRepo,
			app.GitRevision,
			app.GitPath,
		).
		Suffix(`ON CONFLICT (name) DO UPDATE SET
			cluster = EXCLUDED.cluster,
			namespace = EXCLUDED.namespace,
			helm_chart = EXCLUDED.helm_chart,
			git_repo = EXCLUDED.git_repo,
			git_revision = EXCLUDED.git_revision,
			git_path = EXCLUDED.git_path,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert application %s: %w", app.Name, err)
	}

	s.logger.Debug("upserted application", "name", app.Name)
	return nil
}

// Get returns the application called name
func (s *Store) Get(ctx context.Context, name string) (*Application, error) {
	query, args, err := s.statementBuilder.
		Select(selectColumns...).
		From(tableName).
		Where(sq.Eq{columnName: name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var app Application
	if err := s.db.GetContext(ctx, &app, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, name)
		}
		return nil, fmt.Errorf("failed to get application %s: %w", name, err)
	}

	return &app, nil
}

// List returns all applications ordered by name
func (s *Store) List(ctx context.Context) ([]Application, error) {
	query, args, err := s.statementBuilder.
		Select(selectColumns...).
		From(tableName).
		OrderBy(columnName).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	apps := []Application{}
	if err := s.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

// Delete removes the application called name
func (s *Store) Delete(ctx context.Context, name string) error {
	query, args, err := s.statementBuilder.
		Delete(tableName).
		Where(sq.Eq{columnName: name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete application %s: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete application %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrApplicationNotFound, name)
	}

	return nil
}
