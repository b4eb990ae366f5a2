package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/logistock/logistock/internal/platform/db"
	"github.com/logistock/logistock/internal/shared"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
	id         BIGINT PRIMARY KEY,
	position   INT NOT NULL,
	name       TEXT NOT NULL,
	price      NUMERIC NOT NULL CHECK (price > 0),
	base_price NUMERIC NOT NULL CHECK (base_price > 0),
	quantity   BIGINT NOT NULL CHECK (quantity >= 0),
	category   TEXT NOT NULL DEFAULT '',
	entry_date DATE NOT NULL,
	exit_date  DATE NULL
);
CREATE TABLE IF NOT EXISTS product_history (
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	seq        INT NOT NULL,
	at         TIMESTAMPTZ NOT NULL,
	quantity   BIGINT NOT NULL,
	reason     TEXT NOT NULL,
	PRIMARY KEY (product_id, seq)
);
ALTER TABLE products ALTER COLUMN quantity TYPE BIGINT;
ALTER TABLE product_history ALTER COLUMN quantity TYPE BIGINT;`

var (
	productColumns = []string{"id", "position", "name", "price", "base_price", "quantity", "category", "entry_date", "exit_date"}
	historyColumns = []string{"product_id", "seq", "at", "quantity", "reason"}
)

// Repository mirrors the ledger into PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("inventory: ensure schema: %w", err)
	}
	return nil
}

// Save replaces every stored product with the ledger contents.
func (r *Repository) Save(ctx context.Context, l *Ledger) error {
	products := l.Products()
	err := db.WithTx(ctx, r.pool, db.WriteTx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(products))
		var history [][]any
		for i, p := range products {
			rows = append(rows, productRow(p, i))
			history = append(history, historyRows(p)...)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"products"}, productColumns, pgx.CopyFromRows(rows)); err != nil {
			return err
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"product_history"}, historyColumns, pgx.CopyFromRows(history)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inventory: save to postgres: %w: %w", shared.ErrIOFailure, err)
	}
	return nil
}

// Load replaces the ledger with the stored products. Products and history
// are read from the same snapshot.
func (r *Repository) Load(ctx context.Context, l *Ledger) (LoadResult, error) {
	var (
		records []productRecord
		entries []historyRecord
	)
	err := db.WithTx(ctx, r.pool, db.SnapshotTx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id, name, price, base_price, quantity, category, entry_date, exit_date FROM products ORDER BY position`)
		if err != nil {
			return fmt.Errorf("query products: %w", err)
		}
		if records, err = pgx.CollectRows(rows, pgx.RowToStructByPos[productRecord]); err != nil {
			return fmt.Errorf("scan products: %w", err)
		}
		hrows, err := tx.Query(ctx, `SELECT product_id, at, quantity, reason FROM product_history ORDER BY product_id, seq`)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		if entries, err = pgx.CollectRows(hrows, pgx.RowToStructByPos[historyRecord]); err != nil {
			return fmt.Errorf("scan history: %w", err)
		}
		return nil
	})
	if err != nil {
		return LoadResult{}, fmt.Errorf("inventory: load mirror: %w: %w", shared.ErrIOFailure, err)
	}
	history := make(map[int64][]HistoryEntry)
	for _, e := range entries {
		history[e.ProductID] = append(history[e.ProductID], HistoryEntry{At: e.At, Quantity: int(e.Quantity), Reason: HistoryReason(e.Reason)})
	}

	products := make([]*Product, 0, len(records))
	for _, rec := range records {
		p, err := rec.product(history[rec.ID])
		if err != nil {
			return LoadResult{}, fmt.Errorf("inventory: product %d: %w: %w", rec.ID, shared.ErrIOFailure, err)
		}
		products = append(products, p)
	}
	if err := l.replace(products); err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Loaded: len(products)}, nil
}

type productRecord struct {
	ID        int64
	Name      string
	Price     pgtype.Numeric
	BasePrice pgtype.Numeric
	Quantity  int64
	Category  string
	EntryDate time.Time
	ExitDate  *time.Time
}

type historyRecord struct {
	ProductID int64
	At        time.Time
	Quantity  int64
	Reason    string
}

func (rec productRecord) product(history []HistoryEntry) (*Product, error) {
	price, err := fromNumeric(rec.Price)
	if err != nil {
		return nil, err
	}
	base, err := fromNumeric(rec.BasePrice)
	if err != nil {
		return nil, err
	}
	if base.Sign() <= 0 {
		return nil, invalid("base price must be greater than 0")
	}
	p, err := newProduct(ProductParams{
		ID:        rec.ID,
		Name:      rec.Name,
		Price:     price,
		BasePrice: base,
		Quantity:  int(rec.Quantity),
		Category:  rec.Category,
		EntryDate: rec.EntryDate,
		ExitDate:  rec.ExitDate,
	}, ReasonLoaded)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		p.history = history
	}
	return p, nil
}

func productRow(p *Product, position int) []any {
	var exit pgtype.Date
	if p.exitDate != nil {
		exit = pgtype.Date{Time: *p.exitDate, Valid: true}
	}
	return []any{
		p.id,
		int32(position),
		p.name,
		toNumeric(p.price),
		toNumeric(p.basePrice),
		int64(p.quantity),
		p.category,
		pgtype.Date{Time: p.entryDate, Valid: true},
		exit,
	}
}

func historyRows(p *Product) [][]any {
	rows := make([][]any, 0, len(p.history))
	for i, h := range p.history {
		rows = append(rows, []any{p.id, int32(i), h.At, int64(h.Quantity), string(h.Reason)})
	}
	return rows
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Decimal{}, invalid("numeric value missing")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
