package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tbastin/bomcost/pkg/domain/entities"
)

const uniqueViolation = "23505"

// GetFulfillmentLink returns the link for a key (LedgerRepository interface).
func (r *Repository) GetFulfillmentLink(ctx context.Context, fulfillmentKey string) (*entities.FulfillmentLink, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT fulfillment_key, record_id
		FROM fulfillment_links
		WHERE fulfillment_key = $1
	`, fulfillmentKey)

	var link entities.FulfillmentLink
	if err := row.Scan(&link.FulfillmentKey, &link.RecordID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("fulfillment %s: %w", fulfillmentKey, entities.ErrNotFound)
		}
		return nil, err
	}
	return &link, nil
}

// ApplySubtraction runs the decrements and both audit writes in one
// transaction (LedgerRepository interface). The link is inserted first so a
// racing call for the same key fails on the primary key before any
// inventory is touched; first committer wins regardless of which process
// the calls came from.
func (r *Repository) ApplySubtraction(ctx context.Context, fulfillmentKey string, record *entities.SubtractionRecord) (*entities.SubtractionRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `
		INSERT INTO subtraction_records (id, created_at)
		VALUES ($1, $2)
	`, record.ID, record.CreatedAt); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO fulfillment_links (fulfillment_key, record_id)
		VALUES ($1, $2)
	`, fulfillmentKey, record.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("fulfillment %s: %w", fulfillmentKey, entities.ErrAlreadySubtracted)
		}
		return nil, err
	}

	applied := entities.SubtractionRecord{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Entries:   make([]entities.SubtractionEntry, len(record.Entries)),
	}
	for i, entry := range record.Entries {
		// Atomic in-place decrement; concurrent subtractions of different
		// keys interleave without losing updates.
		row := tx.QueryRow(ctx, `
			UPDATE leaf_items
			SET on_hand = on_hand - $2
			WHERE id = $1 AND active
			RETURNING on_hand
		`, string(entry.ItemID), entry.Subtracted)
		if err := row.Scan(&entry.Remaining); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("leaf item %s: %w", entry.ItemID, entities.ErrNotFound)
			}
			return nil, err
		}

		if _, err = tx.Exec(ctx, `
			INSERT INTO subtraction_entries
				(record_id, position, item_id, item_name, unit, unit_price, remaining, subtracted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, record.ID, i, string(entry.ItemID), entry.ItemName, string(entry.Unit),
			entry.UnitPrice, entry.Remaining, entry.Subtracted); err != nil {
			return nil, err
		}
		applied.Entries[i] = entry
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &applied, nil
}

// GetSubtractionRecord returns a written record with its entries in stored
// order (LedgerRepository interface).
func (r *Repository) GetSubtractionRecord(ctx context.Context, id string) (*entities.SubtractionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, created_at
		FROM subtraction_records
		WHERE id = $1
	`, id)

	var record entities.SubtractionRecord
	if err := row.Scan(&record.ID, &record.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subtraction record %s: %w", id, entities.ErrNotFound)
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT item_id, item_name, unit, unit_price, remaining, subtracted
		FROM subtraction_entries
		WHERE record_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry entities.SubtractionEntry
		if err := rows.Scan(&entry.ItemID, &entry.ItemName, &entry.Unit,
			&entry.UnitPrice, &entry.Remaining, &entry.Subtracted); err != nil {
			return nil, err
		}
		record.Entries = append(record.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &record, nil
}
