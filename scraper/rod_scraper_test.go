package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-scraper/logging"
)

// newTestRodTab needs a local Chrome or Chromium, the test is skipped otherwise
func newTestRodTab(t *testing.T, opts RodOptions) *RodTab {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	if findBrowser("") == "" {
		t.Skip("no Chrome or Chromium found")
	}

	opts.Headless = true
	browser, err := NewRodBrowser(opts)
	if err != nil {
		t.Skipf("browser could not start: %v", err)
	}
	t.Cleanup(func() { browser.Close() })

	tab, err := browser.NewTab()
	require.NoError(t, err)
	t.Cleanup(func() { tab.Close() })
	return tab
}

func TestRodTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contact":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><p>Call (415) 555-2671</p><script>document.body.insertAdjacentHTML("beforeend", "<p>or 212-555-0101</p>")</script></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tab := newTestRodTab(t, RodOptions{Block: []string{"images"}, NavigationTimeout: 30 * time.Second})
	rec := &logging.Recorder{}

	ok := ScrapePhones(context.Background(), tab, srv.URL+"/contact", 100*time.Millisecond, rec)
	assert.Empty(t, ok.Error)
	assert.Equal(t, []string{"(415) 555-2671", "212-555-0101"}, ok.Phones, "content rendered by scripts is seen")

	missing := ScrapePhones(context.Background(), tab, srv.URL+"/missing", 0, rec)
	assert.Equal(t, srv.URL+"/missing did'nt opened properly got HTTP code 404", missing.Error)
	assert.Empty(t, missing.Phones)
}

func TestRodTabStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<html><body>fine</body></html>"))
	}))
	defer srv.Close()

	tab := newTestRodTab(t, RodOptions{Stealth: true})

	status, err := tab.Open(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	content, err := tab.Evaluate(context.Background(), func(html string) []string { return []string{html} })
	require.NoError(t, err)
	require.Len(t, content, 1)
	assert.Contains(t, content[0], "fine")

	status, err = tab.Open(context.Background(), srv.URL+"/broken")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
}
