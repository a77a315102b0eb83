// Package store holds the persisted result table and its backends.
package store

import (
	"context"

	"phone-scraper/models"
)

// DefaultName is the dataset used when none is configured
const DefaultName = "result"

// Store loads and saves a named result table. The table is read once at the
// start of a run and written once at the end.
type Store interface {
	Load(ctx context.Context, name string) (*Table, error)
	Save(ctx context.Context, table *Table, results []models.PageResult) error
}

// Table is the in-memory copy of a result dataset, indexed by URL
type Table struct {
	name   string
	rows   []models.OutputRow
	loaded int
	urls   map[string]bool
}

// NewTable creates a table holding previously saved rows
func NewTable(name string, rows []models.OutputRow) *Table {
	t := &Table{
		name: name,
		urls: make(map[string]bool, len(rows)),
	}
	t.Append(rows...)
	t.loaded = len(t.rows)
	return t
}

// Name returns the dataset name
func (t *Table) Name() string {
	return t.name
}

// Has reports whether url already has at least one row
func (t *Table) Has(url string) bool {
	return t.urls[url]
}

// Append adds rows at the end of the table
func (t *Table) Append(rows ...models.OutputRow) {
	for _, row := range rows {
		t.rows = append(t.rows, row)
		t.urls[row.URL] = true
	}
}

// Rows returns every row, previously saved ones first
func (t *Table) Rows() []models.OutputRow {
	return append([]models.OutputRow(nil), t.rows...)
}

// NewRows returns the rows appended since the table was loaded
func (t *Table) NewRows() []models.OutputRow {
	return append([]models.OutputRow(nil), t.rows[t.loaded:]...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}
