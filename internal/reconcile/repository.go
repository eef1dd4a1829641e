package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/comptoir/backoffice/internal/platform/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sale_totals_findings (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT        NOT NULL,
	sale_id     TEXT        NOT NULL,
	reference   TEXT        NOT NULL,
	field       TEXT        NOT NULL,
	expected    NUMERIC(14, 2) NOT NULL,
	stored      NUMERIC(14, 2) NOT NULL,
	delta       NUMERIC(14, 2) NOT NULL,
	detected_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sale_totals_findings_detected_idx ON sale_totals_findings (detected_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS sale_totals_findings_run_sale_field_idx ON sale_totals_findings (run_id, sale_id, field);`

// Repository persists findings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a findings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the findings table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("reconcile repo not initialised")
	}
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("reconcile: ensure schema: %w", err)
	}
	return nil
}

// SaveFindings stores the findings of one run in a single transaction. Re-saving a run
// is idempotent.
func (r *Repository) SaveFindings(ctx context.Context, findings []Finding) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("reconcile repo not initialised")
	}
	if len(findings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const query = `
INSERT INTO sale_totals_findings (run_id, sale_id, reference, field, expected, stored, delta, detected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (run_id, sale_id, field) DO NOTHING`
	for _, f := range findings {
		batch.Queue(query, f.RunID, f.SaleID, f.Reference, f.Field,
			f.Expected.StringFixed(2), f.Stored.StringFixed(2), f.Delta.StringFixed(2), f.DetectedAt)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range findings {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("reconcile: save findings: %w", err)
			}
		}
		return results.Close()
	})
}

// ListFindings returns the most recent findings first.
func (r *Repository) ListFindings(ctx context.Context, limit int) ([]Finding, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("reconcile repo not initialised")
	}
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, run_id, sale_id, reference, field, expected::text, stored::text, delta::text, detected_at
FROM sale_totals_findings
ORDER BY detected_at DESC, id DESC
LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list findings: %w", err)
	}
	defer rows.Close()

	findings := make([]Finding, 0)
	for rows.Next() {
		var (
			f                       Finding
			expected, stored, delta string
		)
		if err := rows.Scan(&f.ID, &f.RunID, &f.SaleID, &f.Reference, &f.Field, &expected, &stored, &delta, &f.DetectedAt); err != nil {
			return nil, err
		}
		if f.Expected, err = parseAmount(expected); err != nil {
			return nil, err
		}
		if f.Stored, err = parseAmount(stored); err != nil {
			return nil, err
		}
		if f.Delta, err = parseAmount(delta); err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// PurgeBefore deletes findings detected before cutoff and reports how many were removed.
func (r *Repository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, fmt.Errorf("reconcile repo not initialised")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM sale_totals_findings WHERE detected_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reconcile: purge findings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reconcile: parse amount %q: %w", raw, err)
	}
	return amount, nil
}
