package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"phone-scraper/models"
	"phone-scraper/store"
)

// Load implements store.Store
func (db *DB) Load(ctx context.Context, name string) (*store.Table, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT url, phone, error
		FROM phone_rows
		WHERE dataset = $1
		ORDER BY id ASC
	`), name)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", name, err)
	}
	defer rows.Close()

	var result []models.OutputRow
	for rows.Next() {
		var row models.OutputRow
		var errText sql.NullString
		if err := rows.Scan(&row.URL, &row.Phone, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row.Error = errText.String
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", name, err)
	}

	return store.NewTable(name, result), nil
}

// Save implements store.Store. New rows and the run's raw results are
// inserted in a single transaction; raw results share a run_id per call.
func (db *DB) Save(ctx context.Context, table *store.Table, results []models.PageResult) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rowStmt, err := tx.PrepareContext(ctx, db.rebind(`
		INSERT INTO phone_rows (dataset, url, phone, error)
		VALUES ($1, $2, $3, $4)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	for _, row := range table.NewRows() {
		if _, err := rowStmt.ExecContext(ctx, table.Name(), row.URL, row.Phone, nullString(row.Error)); err != nil {
			return fmt.Errorf("failed to insert row for %s: %w", row.URL, err)
		}
	}

	resultStmt, err := tx.PrepareContext(ctx, db.rebind(`
		INSERT INTO page_results (dataset, run_id, url, phones, error)
		VALUES ($1, $2, $3, $4, $5)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer resultStmt.Close()

	runID := uuid.NewString()
	for _, result := range results {
		phones, err := json.Marshal(result.Phones)
		if err != nil {
			return fmt.Errorf("failed to encode phones for %s: %w", result.URL, err)
		}
		if _, err := resultStmt.ExecContext(ctx, table.Name(), runID, result.URL, string(phones), nullString(result.Error)); err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", result.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// PageResults returns the raw results stored for a dataset, oldest first
func (db *DB) PageResults(ctx context.Context, name string) ([]models.PageResult, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT url, phones, error
		FROM page_results
		WHERE dataset = $1
		ORDER BY id ASC
	`), name)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	defer rows.Close()

	var results []models.PageResult
	for rows.Next() {
		var result models.PageResult
		var phones string
		var errText sql.NullString
		if err := rows.Scan(&result.URL, &phones, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(phones), &result.Phones); err != nil {
			return nil, fmt.Errorf("failed to decode phones for %s: %w", result.URL, err)
		}
		result.Error = errText.String
		results = append(results, result)
	}
	return results, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
