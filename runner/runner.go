// Package runner drives a scraping run from the raw arguments to the saved
// result table.
package runner

import (
	"context"
	"fmt"
	"io"

	"phone-scraper/budget"
	"phone-scraper/config"
	"phone-scraper/filter"
	"phone-scraper/input"
	"phone-scraper/logging"
	"phone-scraper/models"
	"phone-scraper/notify"
	"phone-scraper/progress"
	"phone-scraper/scraper"
	"phone-scraper/store"
)

// TabOpener opens the tab used for a whole run. It is only called when there
// is something to scrape, so the browser is started on demand. A tab that
// implements io.Closer is closed at the end of the run.
type TabOpener func(ctx context.Context) (scraper.Tab, error)

// Notifier is told how a run ended
type Notifier interface {
	RunFinished(s notify.Summary)
	RunFailed(err error)
}

// Runner wires the collaborators of a run
type Runner struct {
	store    store.Store
	openTab  TabOpener
	loader   input.CSVLoader
	budget   budget.Oracle
	progress progress.Reporter
	logger   logging.Sink
	notifier Notifier
}

// Option customizes a Runner
type Option func(*Runner)

// WithBudget sets the oracle polled before each page
func WithBudget(b budget.Oracle) Option {
	return func(r *Runner) { r.budget = b }
}

// WithProgress sets the progress reporter
func WithProgress(p progress.Reporter) Option {
	return func(r *Runner) { r.progress = p }
}

// WithNotifier sets who is told about the end of the run
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// NewRunner creates a new Runner
func NewRunner(st store.Store, openTab TabOpener, loader input.CSVLoader, logger logging.Sink, opts ...Option) *Runner {
	r := &Runner{
		store:    st,
		openTab:  openTab,
		loader:   loader,
		budget:   budget.Unlimited{},
		progress: progress.Discard{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scrapes the pending pages of cfg and saves them to the dataset.
// Page failures are recorded in the results; only failures of the run
// itself are returned.
func (r *Runner) Run(ctx context.Context, cfg config.RunConfig) (summary notify.Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("run panicked: %v", rec)
		}
		if err != nil && r.notifier != nil {
			r.notifier.RunFailed(err)
		}
	}()

	cfg = cfg.WithDefaults()
	summary.Dataset = cfg.Dataset

	table, err := r.store.Load(ctx, cfg.Dataset)
	if err != nil {
		return summary, fmt.Errorf("failed to load dataset %s: %w", cfg.Dataset, err)
	}

	urls := input.Inflate(ctx, input.Merge(cfg.URLs, cfg.Queries), r.loader, r.logger)
	pending := filter.NewFilter(cfg.PagesPerLaunch).Pending(urls, table)

	if len(pending) == 0 {
		r.logger.Log("Input is empty OR all inputs are already scraped", logging.Warning)
		return summary, nil
	}

	tab, err := r.openTab(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to open browser tab: %w", err)
	}
	if closer, ok := tab.(io.Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				r.logger.Log(fmt.Sprintf("Failed to close browser tab: %v", cerr), logging.Warning)
			}
		}()
	}

	results, stopped := r.scrape(ctx, tab, pending, cfg)
	summary.Stopped = stopped

	table.Append(models.Flatten(results)...)

	// results of an interrupted run are still saved
	if err := r.store.Save(context.WithoutCancel(ctx), table, results); err != nil {
		return summary, fmt.Errorf("failed to save dataset %s: %w", cfg.Dataset, err)
	}

	summary.Pages = len(results)
	for _, res := range results {
		summary.Phones += len(res.Phones)
		if res.Error != "" {
			summary.Failed = append(summary.Failed, res.URL)
		}
	}

	if r.notifier != nil {
		r.notifier.RunFinished(summary)
	}

	return summary, nil
}

// scrape visits urls in order until they are exhausted or the budget runs
// out. stopped holds the budget message when the loop was cut short.
func (r *Runner) scrape(ctx context.Context, tab scraper.Tab, urls []string, cfg config.RunConfig) (results []models.PageResult, stopped string) {
	total := len(urls)

	for i, url := range urls {
		r.logger.Log(fmt.Sprintf("Scraping %s", url), logging.Loading)

		status := r.budget.Check()
		if !status.TimeLeft {
			r.logger.Log(status.Message, logging.Warning)
			return results, status.Message
		}

		if ctx.Err() != nil {
			r.logger.Log(fmt.Sprintf("Run interrupted: %v", ctx.Err()), logging.Warning)
			return results, ctx.Err().Error()
		}

		r.progress.Report(float64(i+1)/float64(total), fmt.Sprintf("Scraping: %s", url))

		res := scraper.ScrapePhones(ctx, tab, url, cfg.TimeToWait, r.logger)
		r.logger.Log(fmt.Sprintf("Got %d phone%s from %s", len(res.Phones), plural(len(res.Phones)), url), logging.Done)

		results = append(results, res)
	}

	return results, ""
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
