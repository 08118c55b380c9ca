package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"IndexVault/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols []model.Symbol `yaml:"symbols"`
	Store   struct {
		WorkbookPath    string `yaml:"workbook_path"`
		MasterSheet     string `yaml:"master_sheet"`
		ContinuousSheet string `yaml:"continuous_sheet"`
		CSVPath         string `yaml:"csv_path"`
	} `yaml:"store"`
	Sync struct {
		Granularity model.Granularity `yaml:"granularity"`
		EpochStart  string            `yaml:"epoch_start"`
	} `yaml:"sync"`
	Fetch struct {
		Source      string        `yaml:"source"`
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Timeout     time.Duration `yaml:"timeout"`
		Parallelism int           `yaml:"parallelism"`
	} `yaml:"fetch"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		SyncCron string `yaml:"sync_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// DefaultSymbols are the major indices tracked when no symbols are configured.
var DefaultSymbols = []model.Symbol{
	{Ticker: "^GSPC", Name: "S&P 500"},
	{Ticker: "^DJI", Name: "Dow Jones"},
	{Ticker: "^IXIC", Name: "Nasdaq Composite"},
	{Ticker: "^RUT", Name: "Russell 2000"},
	{Ticker: "^NDX", Name: "Nasdaq 100"},
	{Ticker: "^FTSE", Name: "FTSE 100"},
	{Ticker: "^GDAXI", Name: "DAX"},
}

// Load reads config from a YAML file, then applies environment variable
// overrides (a .env file in the working directory is honoured) and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// existing environment variables take precedence over .env
	_ = godotenv.Load()

	// Environment variable overrides
	if v := os.Getenv("INDEXVAULT_WORKBOOK"); v != "" {
		cfg.Store.WorkbookPath = v
	}
	if v := os.Getenv("INDEXVAULT_GRANULARITY"); v != "" {
		cfg.Sync.Granularity = model.Granularity(v)
	}
	if v := os.Getenv("QUOTE_BASE_URL"); v != "" {
		cfg.Fetch.BaseURL = v
	}
	if v := os.Getenv("QUOTE_API_KEY"); v != "" {
		cfg.Fetch.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_SYNC"); v != "" {
		cfg.Schedule.SyncCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("FETCH_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Fetch.Parallelism = n
		}
	}

	// Defaults
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = append([]model.Symbol(nil), DefaultSymbols...)
	}
	if cfg.Store.WorkbookPath == "" {
		cfg.Store.WorkbookPath = "data/Major_Markets_Closing.xlsx"
	}
	if cfg.Store.MasterSheet == "" {
		cfg.Store.MasterSheet = "Historical"
	}
	if cfg.Store.ContinuousSheet == "" {
		cfg.Store.ContinuousSheet = "Continuous"
	}
	if cfg.Sync.Granularity == "" {
		cfg.Sync.Granularity = model.Calendar
	}
	if cfg.Sync.EpochStart == "" {
		cfg.Sync.EpochStart = "2005-01-01"
	}
	if cfg.Fetch.Source == "" {
		cfg.Fetch.Source = "yahoo"
		if cfg.Fetch.BaseURL != "" {
			cfg.Fetch.Source = "rest"
		}
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.Parallelism == 0 {
		cfg.Fetch.Parallelism = 4
	}
	if cfg.Schedule.SyncCron == "" {
		cfg.Schedule.SyncCron = "0 30 23 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	seen := map[string]bool{}
	for _, s := range c.Symbols {
		if s.Ticker == "" {
			return fmt.Errorf("symbols: ticker is required")
		}
		if seen[s.Column()] {
			return fmt.Errorf("symbols: duplicate column %q", s.Column())
		}
		seen[s.Column()] = true
	}
	if c.Store.WorkbookPath == "" {
		return fmt.Errorf("store.workbook_path is required")
	}
	if strings.EqualFold(c.Store.MasterSheet, c.Store.ContinuousSheet) {
		return fmt.Errorf("store.master_sheet and store.continuous_sheet must differ (case-insensitive)")
	}
	for _, name := range []string{c.Store.MasterSheet, c.Store.ContinuousSheet} {
		if name == "" || len([]rune(name)) > 30 {
			return fmt.Errorf("sheet name %q must be 1 to 30 characters", name)
		}
	}
	if !c.Sync.Granularity.Valid() {
		return fmt.Errorf("sync.granularity must be %q or %q, got %q", model.Calendar, model.Business, c.Sync.Granularity)
	}
	if _, err := c.EpochStart(); err != nil {
		return fmt.Errorf("sync.epoch_start: %w", err)
	}
	switch c.Fetch.Source {
	case "yahoo":
	case "rest":
		if c.Fetch.BaseURL == "" {
			return fmt.Errorf("fetch.base_url is required for the rest source")
		}
	default:
		return fmt.Errorf("fetch.source must be yahoo or rest, got %q", c.Fetch.Source)
	}
	if c.Fetch.Timeout < 0 || c.Fetch.Parallelism < 0 {
		return fmt.Errorf("fetch.timeout and fetch.parallelism must not be negative")
	}
	return nil
}

// EpochStart returns the parsed full-history start date.
func (c *Config) EpochStart() (model.Date, error) {
	return model.ParseDate(c.Sync.EpochStart)
}

// TelegramEnabled reports whether run summaries should be sent to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
