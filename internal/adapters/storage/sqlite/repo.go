package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hylla/sudsboard/internal/domain"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// DefaultNamespace is the tenant key used when none is configured.
const DefaultNamespace = "default"

// Repository owns the sqlite handle and the change hub shared by every namespace store.
type Repository struct {
	db  *sql.DB
	hub *changeHub
}

// Open opens the database at path, creating the directory and schema when needed.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:sudsboard-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

// newRepository configures the pool and migrates the schema.
func newRepository(db *sql.DB) (*Repository, error) {
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db, hub: newChangeHub()}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Store returns the document store for one namespace.
func (r *Repository) Store(namespace string) *Store {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{repo: r, namespace: namespace}
}

// Namespaces lists every namespace holding at least one document.
func (r *Repository) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT namespace FROM documents ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS documents (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			fields_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(namespace, collection, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_namespace_collection_seq ON documents(namespace, collection, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// queryRower represents a query-only DB contract used by DB and Tx implementations.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// translateNoRows maps a zero-row write to a typed not-found error.
func translateNoRows(res sql.Result, collection, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound(collection, id)
	}
	return nil
}

// notFound builds the typed error for a missing document.
func notFound(collection, id string) error {
	return domain.NotFoundError{Kind: domain.KindDocument, Key: collection + "/" + id}
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
