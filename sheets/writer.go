package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"phone-scraper/models"
	"phone-scraper/store"
)

var header = []interface{}{"url", "phone", "error"}

// Store keeps result datasets as tabs of a Google spreadsheet. Each dataset
// is a tab named after it, the raw results of the last run go to <name>_raw.
type Store struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewStore creates a new Google Sheets store
func NewStore(ctx context.Context, spreadsheetID string, credentialsPath string) (*Store, error) {
	// Read credentials from file or environment variable
	var credsJSON []byte
	var err error

	if credentialsPath != "" {
		credsJSON, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		log.Infof("Reading credentials from GOOGLE_SHEETS_CREDENTIALS environment variable (%d bytes)", len(credsEnv))
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}

	// Only service accounts can be used unattended
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	return NewStoreWithOptions(ctx, spreadsheetID, option.WithCredentialsJSON(credsJSON))
}

// NewStoreWithOptions creates a store with explicit client options
func NewStoreWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is empty")
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Store{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// Load implements store.Store. The tab is created when it does not exist yet.
func (s *Store) Load(ctx context.Context, name string) (*store.Table, error) {
	name = sanitizeSheetName(name)

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, name+"!A:C").Context(ctx).Do()
	if isMissingSheet(err) {
		if err := s.createSheet(ctx, name); err != nil {
			return nil, err
		}
		return store.NewTable(name, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read existing data: %w", err)
	}

	var rows []models.OutputRow
	for i, values := range resp.Values {
		row := rowFromValues(values)
		if i == 0 && row.URL == "url" {
			continue
		}
		if row.URL == "" {
			continue
		}
		rows = append(rows, row)
	}

	log.Debugf("Loaded %d rows from sheet '%s'", len(rows), name)
	return store.NewTable(name, rows), nil
}

// Save implements store.Store. Only the rows added during the run are
// appended; the raw results tab is rewritten.
func (s *Store) Save(ctx context.Context, table *store.Table, results []models.PageResult) error {
	newRows := table.NewRows()

	if len(newRows) > 0 {
		var values [][]interface{}
		for _, row := range newRows {
			values = append(values, []interface{}{row.URL, row.Phone, row.Error})
		}

		_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, table.Name()+"!A:C", &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to append to sheets: %w", err)
		}
		log.Infof("Successfully appended %d rows to sheet '%s'", len(newRows), table.Name())
	}

	return s.writeRawResults(ctx, table.Name()+"_raw", results)
}

// writeRawResults replaces the content of the raw results tab
func (s *Store) writeRawResults(ctx context.Context, name string, results []models.PageResult) error {
	name = sanitizeSheetName(name)

	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, name, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if isMissingSheet(err) {
		err = s.createSheet(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("failed to prepare raw results sheet: %w", err)
	}

	values := [][]interface{}{{"url", "phones", "error"}}
	for _, result := range results {
		values = append(values, []interface{}{result.URL, strings.Join(result.Phones, "\n"), result.Error})
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, name+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write raw results: %w", err)
	}
	return nil
}

// createSheet adds a tab with the table header
func (s *Store) createSheet(ctx context.Context, name string) error {
	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			},
		},
	}

	if _, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateRequest).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, name+"!A1", &sheets.ValueRange{Values: [][]interface{}{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	log.Infof("Created sheet '%s'", name)
	return nil
}

func rowFromValues(values []interface{}) models.OutputRow {
	cell := func(i int) string {
		if i >= len(values) {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(values[i]))
	}
	return models.OutputRow{URL: cell(0), Phone: cell(1), Error: cell(2)}
}

// isMissingSheet reports whether err is the API answer for an unknown tab
func isMissingSheet(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range")
	}
	return false
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ]
	invalidChars := []string{"/", "\\", "?", "*", "[", "]"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = store.DefaultName
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) string {
	// Handle various URL formats:
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
