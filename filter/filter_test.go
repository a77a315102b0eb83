package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"phone-scraper/models"
	"phone-scraper/store"
)

func TestPending(t *testing.T) {
	table := store.NewTable("result", []models.OutputRow{
		{URL: "d.com", Phone: "212-555-0101"},
		{URL: "e.com", Phone: models.NoPhonesFound},
	})

	tests := []struct {
		name     string
		urls     []string
		pages    int
		expected []string
	}{
		{
			name:     "keeps order and caps",
			urls:     []string{"a.com", "b.com", "c.com"},
			pages:    2,
			expected: []string{"a.com", "b.com"},
		},
		{
			name:     "drops seen before capping",
			urls:     []string{"d.com", "a.com", "e.com", "b.com", "c.com"},
			pages:    2,
			expected: []string{"a.com", "b.com"},
		},
		{
			name:     "all seen",
			urls:     []string{"d.com", "e.com"},
			pages:    2,
			expected: nil,
		},
		{
			name:     "exact match only",
			urls:     []string{"https://d.com", "D.com", "d.com/"},
			pages:    5,
			expected: []string{"https://d.com", "D.com", "d.com/"},
		},
		{
			name:     "no cap",
			urls:     []string{"a.com", "b.com", "c.com"},
			pages:    0,
			expected: []string{"a.com", "b.com", "c.com"},
		},
		{
			name:     "empty input",
			urls:     nil,
			pages:    2,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFilter(tt.pages).Pending(tt.urls, table)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPendingNeverExceedsCapOrRevisits(t *testing.T) {
	table := store.NewTable("result", []models.OutputRow{{URL: "b.com", Phone: models.NoPhonesFound}})
	urls := []string{"a.com", "b.com", "c.com", "d.com", "e.com"}

	for pages := 1; pages <= len(urls); pages++ {
		got := NewFilter(pages).Pending(urls, table)
		assert.LessOrEqual(t, len(got), pages)
		for _, url := range got {
			assert.False(t, table.Has(url), url)
		}
	}
}

func TestPendingWithoutTable(t *testing.T) {
	assert.Equal(t, []string{"a.com"}, NewFilter(1).Pending([]string{"a.com", "b.com"}, nil))
}
