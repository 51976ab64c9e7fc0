package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dmko-sec/secdash/internal/domain"
)

// CreateDataset stores the metadata row and bulk-inserts the raw
// records inside one transaction, so a half-ingested upload can never
// be observed.
func (r *Repo) CreateDataset(ctx context.Context, ds *domain.Dataset, rows []domain.RawRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin ingest: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO datasets (id, tool, kind, filename, uploaded_by, record_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ds.ID, ds.Tool, ds.Kind, ds.Filename, ds.UploadedBy, ds.RecordCount, ds.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert dataset: %w", err)
	}

	if err := insertRawRecords(ctx, tx, ds.ID, rows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit ingest: %w", err)
	}
	return nil
}

// insertRawRecords builds one multi-VALUES statement per chunk instead
// of a round trip per row.
func insertRawRecords(ctx context.Context, tx pgx.Tx, datasetID string, rows []domain.RawRecord) error {
	const chunkSize = 500
	const numFields = 3

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var sb strings.Builder
		vals := make([]interface{}, 0, len(chunk)*numFields)
		for i, row := range chunk {
			p := i * numFields
			fmt.Fprintf(&sb, "($%d, $%d, $%d),", p+1, p+2, p+3)

			payload, _ := json.Marshal(row)
			vals = append(vals, datasetID, start+i, payload)
		}

		query := fmt.Sprintf(
			"INSERT INTO raw_records (dataset_id, row_index, payload) VALUES %s",
			strings.TrimSuffix(sb.String(), ","),
		)
		if _, err := tx.Exec(ctx, query, vals...); err != nil {
			return fmt.Errorf("postgres: insert raw records: %w", err)
		}
	}
	return nil
}

// ListDatasets returns dataset metadata, newest first.
func (r *Repo) ListDatasets(ctx context.Context) ([]*domain.Dataset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tool, kind, filename, uploaded_by, record_count, created_at
		FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list datasets: %w", err)
	}
	defer rows.Close()

	var out []*domain.Dataset
	for rows.Next() {
		ds := &domain.Dataset{}
		if err := rows.Scan(&ds.ID, &ds.Tool, &ds.Kind, &ds.Filename, &ds.UploadedBy, &ds.RecordCount, &ds.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan dataset: %w", err)
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// GetRawRecords loads the rows of the newest dataset of one kind, in
// upload order. No dataset of that kind yields an empty slice.
func (r *Repo) GetRawRecords(ctx context.Context, kind domain.RecordKind) ([]domain.RawRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rr.payload
		FROM raw_records rr
		JOIN datasets d ON d.id = rr.dataset_id
		WHERE d.kind = $1
		  AND d.created_at = (SELECT MAX(created_at) FROM datasets WHERE kind = $1)
		ORDER BY rr.row_index`, kind)
	if err != nil {
		return nil, fmt.Errorf("postgres: load raw records: %w", err)
	}
	defer rows.Close()

	out := []domain.RawRecord{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan raw record: %w", err)
		}
		var rec domain.RawRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("postgres: decode raw record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteDataset removes a dataset and its rows.
func (r *Repo) DeleteDataset(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: dataset %s not found", id)
	}
	// raw_records rows go with the dataset via ON DELETE CASCADE.
	return nil
}
