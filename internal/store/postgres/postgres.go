// Package postgres is the PostgreSQL collection backend.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fundledger/internal/core"
	"fundledger/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const table = "transactions"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository owns the connection pool shared by both collections.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to dsn and applies the schema.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Collection returns the named collection holding records of kind.
func (r *Repository) Collection(name string, kind core.Kind) *Collection {
	return &Collection{pool: r.pool, name: name, kind: kind}
}

type Collection struct {
	pool *pgxpool.Pool
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

	query, args, err := psql.Insert(table).
		Columns("collection", "kind", "name", "email", "phone", "project",
			"amount_cents", "timestamp", "status", "transaction_number", "mode").
		Values(c.name, string(t.Kind), t.Name, t.Email, t.Phone, t.Project,
			t.Amount.Cents, t.Timestamp, t.Status, t.TransactionNumber, string(t.Mode)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.name, err)
	}

	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", id,
		"collection", c.name,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)

	return strconv.FormatInt(id, 10), nil
}

func (c *Collection) QueryRecent(ctx context.Context, limit int) ([]core.Transaction, error) {
	b := psql.Select("id", "name", "email", "phone", "project",
		"amount_cents", "timestamp", "status", "transaction_number", "mode").
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

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Transaction, error) {
		var (
			t    core.Transaction
			id   int64
			mode string
		)
		err := row.Scan(&id, &t.Name, &t.Email, &t.Phone, &t.Project,
			&t.Amount.Cents, &t.Timestamp, &t.Status, &t.TransactionNumber, &mode)
		t.ID = strconv.FormatInt(id, 10)
		t.Kind = c.kind
		t.Mode = core.PaymentMode(mode)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect %s rows: %w", c.name, err)
	}
	return out, nil
}
