package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-scraper/logging"
	"phone-scraper/models"
)

// fakeTab serves canned pages keyed by URL
type fakeTab struct {
	pages    map[string]fakePage
	current  string
	waited   []time.Duration
	openErr  error
	panicMsg string
}

type fakePage struct {
	status  int
	content string
	evalErr error
}

func (f *fakeTab) Open(_ context.Context, url string) (int, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.openErr != nil {
		return 0, f.openErr
	}
	f.current = url
	return f.pages[url].status, nil
}

func (f *fakeTab) Wait(_ context.Context, d time.Duration) error {
	f.waited = append(f.waited, d)
	return nil
}

func (f *fakeTab) Evaluate(_ context.Context, fn func(string) []string) ([]string, error) {
	page := f.pages[f.current]
	if page.evalErr != nil {
		return nil, page.evalErr
	}
	return fn(page.content), nil
}

func TestScrapePhones(t *testing.T) {
	tab := &fakeTab{pages: map[string]fakePage{
		"a.com": {status: 200, content: "call 212-555-0101"},
		"b.com": {status: 204, content: "no phone here"},
	}}
	rec := &logging.Recorder{}

	a := ScrapePhones(context.Background(), tab, "a.com", 5*time.Second, rec)
	b := ScrapePhones(context.Background(), tab, "b.com", 5*time.Second, rec)

	assert.Equal(t, models.PageResult{URL: "a.com", Phones: []string{"212-555-0101"}}, a)
	assert.Equal(t, models.PageResult{URL: "b.com", Phones: []string{}}, b)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, tab.waited)
	assert.Empty(t, rec.Messages(logging.Warning))
}

func TestScrapePhonesBadStatus(t *testing.T) {
	tests := []int{404, 500, 301, 199, 0}

	for _, status := range tests {
		tab := &fakeTab{pages: map[string]fakePage{"c.com": {status: status, content: "212-555-0101"}}}
		rec := &logging.Recorder{}

		result := ScrapePhones(context.Background(), tab, "c.com", time.Second, rec)

		assert.Equal(t, "c.com", result.URL)
		assert.Empty(t, result.Phones)
		assert.NotNil(t, result.Phones)
		assert.Contains(t, result.Error, "c.com did'nt opened properly got HTTP code")
		assert.Empty(t, tab.waited, "no wait after a failed navigation")
		assert.Len(t, rec.Messages(logging.Warning), 1)
	}
}

func TestScrapePhones404Message(t *testing.T) {
	tab := &fakeTab{pages: map[string]fakePage{"c.com": {status: 404}}}

	result := ScrapePhones(context.Background(), tab, "c.com", time.Second, &logging.Recorder{})

	assert.Equal(t, "c.com did'nt opened properly got HTTP code 404", result.Error)
}

func TestScrapePhonesNavigationError(t *testing.T) {
	tab := &fakeTab{openErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	rec := &logging.Recorder{}

	result := ScrapePhones(context.Background(), tab, "d.com", time.Second, rec)

	assert.Equal(t, models.PageResult{URL: "d.com", Phones: []string{}, Error: "net::ERR_NAME_NOT_RESOLVED"}, result)
	assert.Equal(t, []string{"Can't properly open d.com due to: net::ERR_NAME_NOT_RESOLVED"}, rec.Messages(logging.Warning))
}

func TestScrapePhonesEvaluateError(t *testing.T) {
	tab := &fakeTab{pages: map[string]fakePage{"e.com": {status: 200, evalErr: errors.New("target crashed")}}}

	result := ScrapePhones(context.Background(), tab, "e.com", 0, &logging.Recorder{})

	assert.Equal(t, "target crashed", result.Error)
	assert.Empty(t, result.Phones)
}

func TestScrapePhonesRecoversPanic(t *testing.T) {
	tab := &fakeTab{panicMsg: "browser crashed"}
	rec := &logging.Recorder{}

	var result models.PageResult
	require.NotPanics(t, func() {
		result = ScrapePhones(context.Background(), tab, "f.com", 0, rec)
	})

	assert.Equal(t, "f.com", result.URL)
	assert.Equal(t, "browser crashed", result.Error)
	assert.Len(t, rec.Messages(logging.Warning), 1)
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleep(context.Background(), 0))
}

func TestCollyTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contact":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><p>Call (415) 555-2671 or 212-555-0101</p><img src="x.png"></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tab := NewCollyTab("", 5*time.Second)
	rec := &logging.Recorder{}

	ok := ScrapePhones(context.Background(), tab, srv.URL+"/contact", time.Hour, rec)
	assert.Empty(t, ok.Error)
	assert.Equal(t, []string{"(415) 555-2671", "212-555-0101"}, ok.Phones)

	missing := ScrapePhones(context.Background(), tab, srv.URL+"/missing", time.Hour, rec)
	assert.Equal(t, srv.URL+"/missing did'nt opened properly got HTTP code 404", missing.Error)

	again := ScrapePhones(context.Background(), tab, srv.URL+"/contact", 0, rec)
	assert.Equal(t, ok.Phones, again.Phones)
}

func TestCollyTabUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	status, err := NewCollyTab("", time.Second).Open(context.Background(), url)

	assert.Equal(t, 0, status)
	assert.Error(t, err)
}

func TestNormalizeResourceType(t *testing.T) {
	assert.Equal(t, "image", normalizeResourceType(" Images "))
	assert.Equal(t, "font", normalizeResourceType("fonts"))
	assert.Equal(t, "stylesheet", normalizeResourceType("stylesheets"))
	assert.Equal(t, "media", normalizeResourceType("media"))
}
