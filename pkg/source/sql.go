package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
)

// Dialect selects the SQL flavour of a store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// Dialects lists the supported store drivers.
var Dialects = []Dialect{SQLite, Postgres, MySQL}

var schemas = map[Dialect]string{
	SQLite: `CREATE TABLE IF NOT EXISTS curly_templates (
	name TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	modified INTEGER NOT NULL
)`,
	Postgres: `CREATE TABLE IF NOT EXISTS curly_templates (
	name TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	modified BIGINT NOT NULL
)`,
	MySQL: `CREATE TABLE IF NOT EXISTS curly_templates (
	name VARCHAR(255) PRIMARY KEY,
	source LONGTEXT NOT NULL,
	modified BIGINT NOT NULL
)`,
}

// SQLStore keeps templates in a database table. Modification times are
// stored as Unix nanoseconds.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	// Timeout bounds the Provider methods, which take no context.
	Timeout time.Duration
}

// OpenStore opens a store for one of the supported dialects.
func OpenStore(dialect Dialect, dsn string) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case SQLite:
		db, err = openSQLite(dsn)
		if err == nil && (dsn == ":memory:" || strings.Contains(dsn, "mode=memory")) {
			// every connection would get its own empty database
			db.SetMaxOpenConns(1)
		}
	case Postgres, MySQL:
		db, err = sql.Open(string(dialect), dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", dialect, err)
	}
	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, Timeout: 10 * time.Second}
}

func (s *SQLStore) Close() error { return s.db.Close() }

// SetupSchema creates the templates table when it does not exist.
func (s *SQLStore) SetupSchema(ctx context.Context) error {
	schema, ok := schemas[s.dialect]
	if !ok {
		return fmt.Errorf("unsupported store driver %q", s.dialect)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// bind rewrites ? placeholders for dialects that number them.
func (s *SQLStore) bind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put inserts or replaces a template.
func (s *SQLStore) Put(ctx context.Context, name, src string, modified time.Time) error {
	var query string
	switch s.dialect {
	case MySQL:
		query = `INSERT INTO curly_templates (name, source, modified) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE source = VALUES(source), modified = VALUES(modified)`
	default:
		query = `INSERT INTO curly_templates (name, source, modified) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET source = excluded.source, modified = excluded.modified`
	}
	if _, err := s.db.ExecContext(ctx, s.bind(query), name, src, modified.UnixNano()); err != nil {
		return fmt.Errorf("storing template %s: %w", name, err)
	}
	return nil
}

// Delete removes a template. Deleting a missing template is not an error.
func (s *SQLStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM curly_templates WHERE name = ?`), name); err != nil {
		return fmt.Errorf("deleting template %s: %w", name, err)
	}
	return nil
}

func (s *SQLStore) opContext() (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.Timeout)
}

func (s *SQLStore) Source(name string) (string, time.Time, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	var (
		src string
		mod int64
	)
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT source, modified FROM curly_templates WHERE name = ?`), name).Scan(&src, &mod)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrTemplateNotFound{name}
	} else if err != nil {
		return "", time.Time{}, fmt.Errorf("loading template %s: %w", name, err)
	}
	return src, time.Unix(0, mod), nil
}

func (s *SQLStore) ModTime(name string) (time.Time, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	var mod int64
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT modified FROM curly_templates WHERE name = ?`), name).Scan(&mod)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrTemplateNotFound{name}
	} else if err != nil {
		return time.Time{}, fmt.Errorf("loading template %s: %w", name, err)
	}
	return time.Unix(0, mod), nil
}

func (s *SQLStore) List() ([]string, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM curly_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
