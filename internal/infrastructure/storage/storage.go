package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Storage provides database access for transactions and subscriptions.
// Queries are written with ? placeholders and rebound for PostgreSQL.
type Storage struct {
	db     *sql.DB
	driver string
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	return Open(DriverSQLite, dbPath)
}

// Open connects to the database, enables driver specifics and runs all
// pending migrations.
func Open(driver, dsn string) (*Storage, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// Enable foreign key constraints (SQLite-specific)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s := &Storage{db: db, driver: driver}

	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// sqliteDSN sets foreign keys and a busy timeout on every pooled connection,
// since PRAGMA foreign_keys only applies to the connection that ran it
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Ping verifies the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name in use
func (s *Storage) Driver() string {
	return s.driver
}

// rebind converts ? placeholders to $N for PostgreSQL
func (s *Storage) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// withTx runs fn inside a database transaction, rolling back on error
func (s *Storage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure on either driver
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// placeholders returns "?, ?, ?" for n arguments
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// utc normalizes timestamps so SQLite text comparisons order correctly
func utc(t time.Time) time.Time {
	return t.UTC()
}
