// Package storage is the SQLite collection backend. Both collections share
// one table keyed by collection name.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"fundledger/internal/core"
	"fundledger/internal/store"
)

const table = "transactions"

var columns = []string{
	"id", "kind", "name", "email", "phone", "project",
	"amount_cents", "timestamp", "status", "transaction_number", "mode",
}

type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateLedger(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Collection returns the named collection holding records of kind.
func (r *SQLiteRepository) Collection(name string, kind core.Kind) *Collection {
	return &Collection{db: r.db, name: name, kind: kind}
}

// Collection implements store.Collection on top of the shared table.
type Collection struct {
	db   *sql.DB
	name string
	kind core.Kind
}

var _ store.Collection = (*Collection)(nil)

func (c *Collection) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := store.CheckKind(t, c.kind); err != nil {
		return "", err
	}
	if err := t.Validate(); err != nil {
		return "", err
	}

	query, args, err := sq.Insert(table).
		Columns("collection", "kind", "name", "email", "phone", "project",
			"amount_cents", "timestamp", "status", "transaction_number", "mode").
		Values(c.name, string(t.Kind), t.Name, t.Email, t.Phone, t.Project,
			t.Amount.Cents, t.Timestamp, t.Status, t.TransactionNumber, string(t.Mode)).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"collection", c.name,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)

	return strconv.FormatInt(id, 10), nil
}

func (c *Collection) QueryRecent(ctx context.Context, limit int) ([]core.Transaction, error) {
	b := sq.Select(columns...).
		From(table).
		Where(sq.Eq{"collection": c.name}).
		OrderBy("timestamp DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			id   int64
			kind string
			mode string
		)
		if err := rows.Scan(&id, &kind, &t.Name, &t.Email, &t.Phone, &t.Project,
			&t.Amount.Cents, &t.Timestamp, &t.Status, &t.TransactionNumber, &mode); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", c.name, err)
		}
		t.ID = strconv.FormatInt(id, 10)
		t.Kind = c.kind
		t.Mode = core.PaymentMode(mode)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", c.name, err)
	}
	return out, nil
}
