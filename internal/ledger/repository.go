// Package ledger maintains an optional Postgres audit trail of pipeline
// progress per lead. It observes the pipeline through the event bus and
// is never on the hot path: ledger failures are logged, not propagated.
package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead statuses recorded in the ledger.
const (
	StatusReceived = "received"
	StatusEnriched = "enriched"
)

// Repository persists lead pipeline progress.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a ledger repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordReceipt upserts the receipt of a raw lead event. The upsert is
// keyed by lead_id so redelivered webhooks stay idempotent, matching the
// overwrite semantics of the object store.
func (r *Repository) RecordReceipt(ctx context.Context, leadID, rawKey string, receivedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_events (lead_id, raw_key, received_at, status, attempts)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (lead_id) DO UPDATE SET
			raw_key = EXCLUDED.raw_key,
			received_at = EXCLUDED.received_at,
			status = EXCLUDED.status,
			attempts = lead_events.attempts + 1
	`, leadID, rawKey, receivedAt, StatusReceived)
	return err
}

// RecordEnrichment marks a lead as enriched. Last write wins on
// concurrent reprocessing, like the enriched object itself.
func (r *Repository) RecordEnrichment(ctx context.Context, leadID, enrichedKey string, enrichedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_events (lead_id, raw_key, received_at, enriched_key, enriched_at, status, attempts)
		VALUES ($1, '', $2, $3, $2, $4, 1)
		ON CONFLICT (lead_id) DO UPDATE SET
			enriched_key = EXCLUDED.enriched_key,
			enriched_at = EXCLUDED.enriched_at,
			status = EXCLUDED.status
	`, leadID, enrichedAt, enrichedKey, StatusEnriched)
	return err
}
