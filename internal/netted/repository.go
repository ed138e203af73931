package netted

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quipu-reports/quipu/internal/platform/db"
)

// ErrNoSync is returned when the store has never been populated.
var ErrNoSync = errors.New("netted: no completed sync run")

// Repository provides PostgreSQL backed persistence for netted
// positions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Replace swaps the stored positions with the given run's result in one
// transaction. Positions absent from the new run are removed so stale
// suppliers never linger.
func (r *Repository) Replace(ctx context.Context, positions []Position) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM netted_positions`); err != nil {
			return fmt.Errorf("netted: clear positions: %w", err)
		}
		for _, p := range positions {
			_, err := tx.Exec(ctx, `
				INSERT INTO netted_positions
					(supplier_id, supplier_name, tax_id, payable, receivable, net,
					 currency, line_count, run_id, synced_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (supplier_id) DO UPDATE SET
					supplier_name = EXCLUDED.supplier_name,
					tax_id = EXCLUDED.tax_id,
					payable = EXCLUDED.payable,
					receivable = EXCLUDED.receivable,
					net = EXCLUDED.net,
					currency = EXCLUDED.currency,
					line_count = EXCLUDED.line_count,
					run_id = EXCLUDED.run_id,
					synced_at = EXCLUDED.synced_at`,
				p.SupplierID, p.SupplierName, p.TaxID, p.Payable, p.Receivable, p.Net,
				p.Currency, p.LineCount, p.RunID, p.SyncedAt,
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return fmt.Errorf("netted: duplicate supplier %d in run %s: %w", p.SupplierID, p.RunID, err)
				}
				return fmt.Errorf("netted: upsert supplier %d: %w", p.SupplierID, err)
			}
		}
		return nil
	})
}

// List returns stored positions, optionally narrowed by a
// case-insensitive supplier name match, net-descending.
func (r *Repository) List(ctx context.Context, nameFilter string, limit, offset int) ([]Position, int, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + nameFilter + "%"

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM netted_positions WHERE supplier_name ILIKE $1`,
		pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("netted: count positions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT supplier_id, supplier_name, tax_id, payable, receivable, net,
		       currency, line_count, run_id, synced_at
		FROM netted_positions
		WHERE supplier_name ILIKE $1
		ORDER BY net DESC, supplier_id ASC
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("netted: list positions: %w", err)
	}
	defer rows.Close()

	out := make([]Position, 0, limit)
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.SupplierID, &p.SupplierName, &p.TaxID, &p.Payable,
			&p.Receivable, &p.Net, &p.Currency, &p.LineCount, &p.RunID, &p.SyncedAt); err != nil {
			return nil, 0, fmt.Errorf("netted: scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// LastRun reports the most recent sync run present in the store.
func (r *Repository) LastRun(ctx context.Context) (RunInfo, error) {
	var info RunInfo
	err := r.pool.QueryRow(ctx, `
		SELECT run_id, MAX(synced_at), COUNT(*)
		FROM netted_positions
		GROUP BY run_id
		ORDER BY MAX(synced_at) DESC
		LIMIT 1`).Scan(&info.RunID, &info.SyncedAt, &info.Suppliers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RunInfo{}, ErrNoSync
		}
		return RunInfo{}, fmt.Errorf("netted: last run: %w", err)
	}
	return info, nil
}
