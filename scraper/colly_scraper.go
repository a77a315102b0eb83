package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent is sent by the static engine
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyTab implements Tab with plain HTTP requests. Pages are not rendered,
// so it only finds phones present in the served HTML.
type CollyTab struct {
	collector *colly.Collector
	body      []byte
}

// NewCollyTab creates a new CollyTab
func NewCollyTab(userAgent string, timeout time.Duration) *CollyTab {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &CollyTab{collector: c}
}

// Open implements Tab. HTTP error statuses are returned as a status, not an error.
func (t *CollyTab) Open(ctx context.Context, url string) (int, error) {
	t.body = nil

	c := t.collector.Clone()
	c.Context = ctx

	status := 0
	var body []byte
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			status = r.StatusCode
			body = r.Body
		}
	})

	err := c.Visit(url)
	if status == 0 {
		if err == nil {
			err = fmt.Errorf("no response received")
		}
		return 0, fmt.Errorf("failed to visit URL: %w", err)
	}

	t.body = body
	return status, nil
}

// Wait implements Tab. Nothing renders client-side, so there is nothing to wait for.
func (t *CollyTab) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Evaluate implements Tab on the inner HTML of the <html> element
func (t *CollyTab) Evaluate(_ context.Context, fn func(content string) []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(t.body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	html, err := doc.Find("html").Html()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize HTML: %w", err)
	}

	return fn(html), nil
}
