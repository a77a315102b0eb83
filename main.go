package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"phone-scraper/budget"
	"phone-scraper/config"
	"phone-scraper/db"
	"phone-scraper/input"
	"phone-scraper/logging"
	"phone-scraper/notify"
	"phone-scraper/progress"
	"phone-scraper/runner"
	"phone-scraper/scraper"
	"phone-scraper/sheets"
	"phone-scraper/store"
)

// stringList collects a repeated flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var urls, queries stringList
	flags := flag.NewFlagSet("phone-scraper", flag.ContinueOnError)

	// Parse command line arguments
	configPath := flags.String("config", "config.yaml", "Path to configuration file")
	flags.Var(&urls, "url", "Page URL or CSV reference to scrape (repeatable)")
	flags.Var(&queries, "query", "Additional URL or CSV reference, merged after -url (repeatable)")
	wait := flags.Int("wait", config.DefaultTimeToWait, "Milliseconds to wait after each page load")
	pages := flags.Int("pages", config.DefaultPagesPerLaunch, "Maximum number of pages to scrape in this launch")
	dataset := flags.String("dataset", store.DefaultName, "Name of the result dataset")
	storage := flags.String("store", config.StorageFile, "Result storage: file, sheets, postgres or sqlite")
	output := flags.String("output", ".", "Directory of the file store")
	spreadsheetURL := flags.String("spreadsheet", "", "Google Sheets URL for the sheets store")
	credentialsPath := flags.String("credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	databaseURL := flags.String("database-url", "", "Database connection string for the postgres and sqlite stores")
	engine := flags.String("engine", config.EngineRod, "Page engine: rod (headless browser) or static (plain HTTP)")
	headless := flags.Bool("headless", true, "Run the browser without a window")
	stealth := flags.Bool("stealth", false, "Hide headless browser fingerprints")
	maxDuration := flags.Duration("max-duration", 0, "Stop starting pages once this run time is almost used (0 = unlimited)")
	maxPages := flags.Int("max-pages", 0, "Stop after this many pages whatever the pages per launch (0 = unlimited)")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.NewLogger(os.Stderr, *logLevel).Log(err.Error(), logging.Error)
		return 1
	}
	cfg.ApplyEnv()

	// Flags explicitly given override the config file
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.URLs = input.List(urls...)
		case "query":
			cfg.Queries = input.List(queries...)
		case "wait":
			cfg.TimeToWait = *wait
		case "pages":
			cfg.PagesPerLaunch = *pages
		case "dataset":
			cfg.Dataset = *dataset
		case "store":
			cfg.Storage.Driver = *storage
		case "output":
			cfg.Storage.Dir = *output
		case "spreadsheet":
			cfg.Storage.SpreadsheetURL = *spreadsheetURL
		case "credentials":
			cfg.Storage.Credentials = *credentialsPath
		case "database-url":
			cfg.Storage.DatabaseURL = *databaseURL
		case "engine":
			cfg.Engine = *engine
		case "headless":
			cfg.Browser.Headless = *headless
		case "stealth":
			cfg.Browser.Stealth = *stealth
		case "max-duration":
			cfg.Budget.MaxDuration = *maxDuration
		case "max-pages":
			cfg.Budget.MaxPages = *maxPages
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	logger := logging.NewLogger(os.Stderr, cfg.LogLevel)
	logger.SetDefault()

	if err := cfg.Validate(); err != nil {
		logger.Log(err.Error(), logging.Error)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Log(fmt.Sprintf("Failed to open %s store: %v", cfg.Storage.Driver, err), logging.Error)
		return 1
	}
	defer closeStore()

	var reporter progress.Reporter = progress.NewBar(os.Stdout)
	opts := []runner.Option{
		runner.WithBudget(budget.NewDeadline(budget.Limits{
			MaxDuration: cfg.Budget.MaxDuration,
			Margin:      cfg.Budget.Margin,
			MaxPages:    cfg.Budget.MaxPages,
		})),
	}

	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Log(fmt.Sprintf("Telegram notifications disabled: %v", err), logging.Warning)
		} else {
			reporter = progress.Multi{reporter, tg}
			opts = append(opts, runner.WithNotifier(tg))
		}
	}
	opts = append(opts, runner.WithProgress(reporter))

	r := runner.NewRunner(st, tabOpener(cfg, logger), input.NewLoader(nil), logger, opts...)

	summary, err := r.Run(ctx, cfg.Run())
	if err != nil {
		logger.Log(err.Error(), logging.Error)
		return 1
	}

	logger.Debug("run finished", "dataset", summary.Dataset, "pages", summary.Pages, "phones", summary.Phones, "failed", len(summary.Failed))
	return 0
}

// loadConfig reads the config file. Only a missing file falls back to defaults.
func loadConfig(configPath string) (*config.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.GetDefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	return cfg, nil
}

// openStore builds the result store selected by the storage driver
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.Storage.Driver {
	case config.StorageSheets:
		spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Storage.SpreadsheetURL)
		if spreadsheetID == "" {
			return nil, noop, fmt.Errorf("could not extract spreadsheet ID from URL: %s", cfg.Storage.SpreadsheetURL)
		}
		s, err := sheets.NewStore(ctx, spreadsheetID, cfg.Storage.Credentials)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case config.StoragePostgres, config.StorageSQLite:
		database, err := db.NewDB(cfg.Storage.Driver, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return database, func() { database.Close() }, nil

	default:
		s, err := store.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
}

// tabOpener starts the page engine on demand
func tabOpener(cfg *config.Config, logger *logging.Logger) runner.TabOpener {
	if cfg.Engine == config.EngineStatic {
		return func(context.Context) (scraper.Tab, error) {
			return scraper.NewCollyTab(cfg.Browser.UserAgent, cfg.Browser.NavigationTimeout), nil
		}
	}

	return func(context.Context) (scraper.Tab, error) {
		logger.Debug("launching browser", "headless", cfg.Browser.Headless, "stealth", cfg.Browser.Stealth)
		browser, err := scraper.NewRodBrowser(scraper.RodOptions{
			Headless:          cfg.Browser.Headless,
			Stealth:           cfg.Browser.Stealth,
			Block:             cfg.Browser.Block,
			Bin:               cfg.Browser.Bin,
			UserDataDir:       cfg.Browser.UserDataDir,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
		})
		if err != nil {
			return nil, err
		}

		tab, err := browser.NewTab()
		if err != nil {
			browser.Close()
			return nil, err
		}

		return &browserTab{RodTab: tab, browser: browser}, nil
	}
}

// browserTab closes the browser together with its tab
type browserTab struct {
	*scraper.RodTab
	browser *scraper.RodBrowser
}

func (b *browserTab) Close() error {
	tabErr := b.RodTab.Close()
	if err := b.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return tabErr
}
