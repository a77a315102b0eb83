package scraper

import (
	"context"
	"fmt"
	"time"

	"phone-scraper/logging"
	"phone-scraper/models"
	"phone-scraper/parser"
)

// Tab is a single browser tab reused for every page of a run
type Tab interface {
	// Open navigates to url and returns the HTTP status of the document
	Open(ctx context.Context, url string) (int, error)
	// Wait pauses for d so client-side rendering can settle
	Wait(ctx context.Context, d time.Duration) error
	// Evaluate runs fn against the rendered content of the current page
	Evaluate(ctx context.Context, fn func(content string) []string) ([]string, error)
}

// ScrapePhones visits url with tab and extracts the phones of the rendered
// page. Failures are reported in the result, never returned, so that a run
// always moves on to the next page.
func ScrapePhones(ctx context.Context, tab Tab, url string, wait time.Duration, logger logging.Sink) (result models.PageResult) {
	result = models.PageResult{URL: url, Phones: []string{}}

	defer func() {
		if r := recover(); r != nil {
			logger.Log(fmt.Sprintf("Can't properly open %s due to: %v", url, r), logging.Warning)
			result.Error = fmt.Sprint(r)
		}
	}()

	status, err := tab.Open(ctx, url)
	if err != nil {
		return failed(result, err, logger)
	}

	if status >= 300 || status < 200 {
		logger.Log(fmt.Sprintf("%s didn't opened properly got HTTP code %d", url, status), logging.Warning)
		result.Error = fmt.Sprintf("%s did'nt opened properly got HTTP code %d", url, status)
		return result
	}

	if err := tab.Wait(ctx, wait); err != nil {
		return failed(result, err, logger)
	}

	phones, err := tab.Evaluate(ctx, parser.ExtractPhones)
	if err != nil {
		return failed(result, err, logger)
	}
	result.Phones = append(result.Phones, phones...)

	return result
}

func failed(result models.PageResult, err error, logger logging.Sink) models.PageResult {
	logger.Log(fmt.Sprintf("Can't properly open %s due to: %v", result.URL, err), logging.Warning)
	result.Error = err.Error()
	return result
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
