package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmater/waitlist/internal/proto"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store handles persistence against the Supabase Postgres database.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies all pending schema migrations.
func Migrate(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("store: migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("store: init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// migrateURL rewrites a postgres:// DSN to the scheme the pgx/v5 migrate
// driver is registered under.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// ListProspects returns every waitlist entry tagged as a prospect.
func (s *Store) ListProspects(ctx context.Context) ([]proto.WaitlistEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, full_name, move_in_date::text, move_in_date_end::text, entry_type, extended_retention
		FROM waitlist_entries
		WHERE entry_type = $1
		ORDER BY created_at, id
	`, string(proto.EntryProspect))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []proto.WaitlistEntry
	for rows.Next() {
		var e proto.WaitlistEntry
		var entryType string
		if err := rows.Scan(&e.ID, &e.FullName, &e.MoveInDate, &e.MoveInDateEnd, &entryType, &e.ExtendedRetention); err != nil {
			return nil, err
		}
		e.EntryType = proto.EntryType(entryType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntries removes the given entries in a single statement. Unknown ids
// are ignored.
func (s *Store) DeleteEntries(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM waitlist_entries WHERE id = ANY($1::uuid[])`, strs)
	return err
}

// RecordCleanupRun stores the audit row for one cleanup pass.
func (s *Store) RecordCleanupRun(ctx context.Context, run proto.CleanupRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cleanup_runs (ran_at, deleted, standard_cutoff, extended_cutoff, error)
		VALUES ($1, $2, NULLIF($3, '')::date, NULLIF($4, '')::date, NULLIF($5, ''))
	`, run.RanAt, run.Deleted, run.StandardCutoff, run.ExtendedCutoff, run.Error)
	return err
}

// ListCleanupRuns returns the most recent cleanup runs, newest first.
func (s *Store) ListCleanupRuns(ctx context.Context, limit int) ([]proto.CleanupRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ran_at, deleted, COALESCE(standard_cutoff::text, ''), COALESCE(extended_cutoff::text, ''), COALESCE(error, '')
		FROM cleanup_runs
		ORDER BY ran_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []proto.CleanupRun
	for rows.Next() {
		var r proto.CleanupRun
		if err := rows.Scan(&r.RanAt, &r.Deleted, &r.StandardCutoff, &r.ExtendedCutoff, &r.Error); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
