package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"phone-scraper/input"
	"phone-scraper/store"
)

const (
	// DefaultTimeToWait is the pause after each page load, in milliseconds
	DefaultTimeToWait = 5000
	// DefaultPagesPerLaunch caps the pages scraped by a single run
	DefaultPagesPerLaunch = 2

	EngineRod    = "rod"
	EngineStatic = "static"

	StorageFile     = "file"
	StorageSheets   = "sheets"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config is the content of the YAML configuration file
type Config struct {
	URLs    input.Args `yaml:"urls"`
	Queries input.Args `yaml:"queries"`
	// TimeToWait is in milliseconds
	TimeToWait     int    `yaml:"time_to_wait"`
	PagesPerLaunch int    `yaml:"pages_per_launch"`
	Dataset        string `yaml:"dataset"`
	Engine         string `yaml:"engine"`
	LogLevel       string `yaml:"log_level"`

	Browser  BrowserConfig  `yaml:"browser"`
	Budget   BudgetConfig   `yaml:"budget"`
	Storage  StorageConfig  `yaml:"storage"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// BrowserConfig configures the rod engine
type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	Stealth           bool          `yaml:"stealth"`
	Block             []string      `yaml:"block"`
	Bin               string        `yaml:"bin"`
	UserDataDir       string        `yaml:"user_data_dir"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	UserAgent         string        `yaml:"user_agent"`
}

// BudgetConfig bounds a run. Zero values mean no limit.
type BudgetConfig struct {
	MaxDuration time.Duration `yaml:"max_duration"`
	Margin      time.Duration `yaml:"margin"`
	MaxPages    int           `yaml:"max_pages"`
}

// StorageConfig selects where the result table lives
type StorageConfig struct {
	Driver         string `yaml:"driver"`
	Dir            string `yaml:"dir"`
	SpreadsheetURL string `yaml:"spreadsheet_url"`
	Credentials    string `yaml:"credentials"`
	DatabaseURL    string `yaml:"database_url"`
}

// TelegramConfig enables progress notifications when both fields are set
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled reports whether notifications can be sent
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// RunConfig holds the arguments of a single run
type RunConfig struct {
	URLs           input.Args
	Queries        input.Args
	TimeToWait     time.Duration
	PagesPerLaunch int
	Dataset        string
}

// WithDefaults fills unset fields
func (r RunConfig) WithDefaults() RunConfig {
	if r.TimeToWait <= 0 {
		r.TimeToWait = DefaultTimeToWait * time.Millisecond
	}
	if r.PagesPerLaunch <= 0 {
		r.PagesPerLaunch = DefaultPagesPerLaunch
	}
	if r.Dataset == "" {
		r.Dataset = store.DefaultName
	}
	return r
}

// Run extracts the run arguments
func (c *Config) Run() RunConfig {
	return RunConfig{
		URLs:           c.URLs,
		Queries:        c.Queries,
		TimeToWait:     time.Duration(c.TimeToWait) * time.Millisecond,
		PagesPerLaunch: c.PagesPerLaunch,
		Dataset:        c.Dataset,
	}.WithDefaults()
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{
		TimeToWait:     DefaultTimeToWait,
		PagesPerLaunch: DefaultPagesPerLaunch,
		Dataset:        store.DefaultName,
		Engine:         EngineRod,
		LogLevel:       "info",
	}
	cfg.Browser.Headless = true
	cfg.Browser.Block = []string{"image", "media", "font"}
	cfg.Browser.NavigationTimeout = 60 * time.Second
	cfg.Budget.Margin = 30 * time.Second
	cfg.Storage.Driver = StorageFile
	cfg.Storage.Dir = "."
	return cfg
}

// ApplyEnv fills settings that are usually kept out of the config file
func (c *Config) ApplyEnv() {
	c.Telegram.Token = getEnvOrDefault("TELEGRAM_BOT_TOKEN", c.Telegram.Token)
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
	c.Browser.UserDataDir = getEnvOrDefault("BOT_DATA_DIR", c.Browser.UserDataDir)
	c.Storage.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.Storage.DatabaseURL)
	c.Storage.Credentials = getEnvOrDefault("GOOGLE_SHEETS_CREDENTIALS_FILE", c.Storage.Credentials)
	c.Storage.SpreadsheetURL = getEnvOrDefault("SPREADSHEET_URL", c.Storage.SpreadsheetURL)
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	switch c.Engine {
	case EngineRod, EngineStatic:
	default:
		return fmt.Errorf("unknown engine %q (expected %s or %s)", c.Engine, EngineRod, EngineStatic)
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageFile, StoragePostgres, StorageSQLite:
	case StorageSheets:
		if c.Storage.SpreadsheetURL == "" {
			return fmt.Errorf("storage driver %s requires spreadsheet_url", StorageSheets)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.TimeToWait < 0 {
		return fmt.Errorf("time_to_wait must not be negative, got %d", c.TimeToWait)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
