package models

// NoPhonesFound is written in the phone column for pages without any match
const NoPhonesFound = "no phones found"

// PageResult is the outcome of scraping a single URL
type PageResult struct {
	URL    string   `json:"url"`
	Phones []string `json:"phones"`
	Error  string   `json:"error,omitempty"`
}

// OutputRow is one flattened record of the result table
type OutputRow struct {
	URL   string `json:"url" csv:"url"`
	Phone string `json:"phone" csv:"phone"`
	Error string `json:"error,omitempty" csv:"error,omitempty"`
}

// Flatten converts page results into table rows: one row per phone found,
// or a single NoPhonesFound row when a page yielded nothing. The error of a
// page is copied onto every row emitted for it.
func Flatten(results []PageResult) []OutputRow {
	rows := make([]OutputRow, 0, len(results))

	for _, result := range results {
		base := OutputRow{URL: result.URL, Error: result.Error}

		if len(result.Phones) == 0 {
			base.Phone = NoPhonesFound
			rows = append(rows, base)
			continue
		}

		for _, phone := range result.Phones {
			row := base
			row.Phone = phone
			rows = append(rows, row)
		}
	}

	return rows
}
