package input

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"phone-scraper/sheets"
)

// ErrNotCSV is returned for references that do not point to a CSV resource
var ErrNotCSV = errors.New("not a csv resource")

var gidRegex = regexp.MustCompile(`gid=([0-9]+)`)

// Loader reads the first column of CSV files given as local paths, http(s)
// URLs or Google Sheets links.
type Loader struct {
	client *http.Client
}

// NewLoader creates a new Loader. A nil client gets a 30s timeout default.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client}
}

// Load implements CSVLoader
func (l *Loader) Load(ctx context.Context, ref string) ([]string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotCSV
	}

	if strings.Contains(ref, "docs.google.com/spreadsheets") {
		id := sheets.ExtractSpreadsheetID(ref)
		if id == "" {
			return nil, ErrNotCSV
		}
		return l.download(ctx, exportURL(id, ref), true)
	}

	u, err := url.Parse(ref)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if !isCSVPath(u.Path) && u.Query().Get("format") != "csv" {
			return nil, ErrNotCSV
		}
		return l.download(ctx, ref, false)
	}

	if !isCSVPath(ref) {
		return nil, ErrNotCSV
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	return readFirstColumn(f)
}

// download fetches a remote CSV. Unless trusted, the response must be
// served as CSV or plain text.
func (l *Loader) download(ctx context.Context, rawURL string, trusted bool) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download csv: HTTP %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !trusted && !strings.Contains(contentType, "csv") && !strings.HasPrefix(contentType, "text/plain") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotCSV, contentType)
	}

	return readFirstColumn(resp.Body)
}

// readFirstColumn returns the non-blank first cell of every record. A first
// record that does not look like a URL is treated as a header and skipped.
func readFirstColumn(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var values []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		value := strings.TrimSpace(record[0])
		if first {
			first = false
			if isHeader(value) {
				continue
			}
		}
		if value != "" {
			values = append(values, value)
		}
	}

	return values, nil
}

func isHeader(value string) bool {
	return !strings.ContainsAny(value, "./")
}

func isCSVPath(p string) bool {
	return strings.EqualFold(path.Ext(p), ".csv")
}

// exportURL points a Google Sheets link to its CSV export, keeping the tab
// (gid) when the link names one.
func exportURL(spreadsheetID, link string) string {
	u := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", spreadsheetID)
	if m := gidRegex.FindStringSubmatch(link); m != nil {
		u += "&gid=" + m[1]
	}
	return u
}
