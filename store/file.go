package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"

	"phone-scraper/models"
)

// FileStore keeps a dataset as <name>.csv in a directory, with the raw
// results of the last run next to it in <name>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// CSVPath returns the table file of a dataset
func (s *FileStore) CSVPath(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// JSONPath returns the raw results file of a dataset
func (s *FileStore) JSONPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load implements Store. A missing file is an empty table.
func (s *FileStore) Load(_ context.Context, name string) (*Table, error) {
	data, err := os.ReadFile(s.CSVPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return NewTable(name, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.CSVPath(name), err)
	}
	if len(data) == 0 {
		return NewTable(name, nil), nil
	}

	var rows []models.OutputRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.CSVPath(name), err)
	}

	return NewTable(name, rows), nil
}

// Save implements Store. Both files are rewritten in full.
func (s *FileStore) Save(_ context.Context, table *Table, results []models.PageResult) error {
	rows := table.Rows()
	if rows == nil {
		rows = []models.OutputRow{}
	}

	csvData, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	if err := writeFileAtomic(s.CSVPath(table.Name()), csvData); err != nil {
		return err
	}

	if results == nil {
		results = []models.PageResult{}
	}
	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return writeFileAtomic(s.JSONPath(table.Name()), jsonData)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
