package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"provider"`
	Scan struct {
		BatchSize     int     `yaml:"batch_size"`
		DelayMs       int     `yaml:"delay_ms"`
		MinGapPercent float64 `yaml:"min_gap_percent"`
		MinVolume     int64   `yaml:"min_volume"`
		MaxPrice      float64 `yaml:"max_price"`
		MinMarketCap  float64 `yaml:"min_market_cap"`
		DefaultLimit  int     `yaml:"default_limit"`
		TopN          int     `yaml:"top_n"`
	} `yaml:"scan"`
	Cache struct {
		SQLitePath string        `yaml:"sqlite_path"`
		ResultTTL  time.Duration `yaml:"result_ttl"`
		QuoteTTL   time.Duration `yaml:"quote_ttl"`
	} `yaml:"cache"`
	Universe struct {
		File string `yaml:"file"`
	} `yaml:"universe"`
	Calendar struct {
		Timezone      string   `yaml:"timezone"`
		ExtraHolidays []string `yaml:"extra_holidays"`
	} `yaml:"calendar"`
	Schedule struct {
		PremarketCron string `yaml:"premarket_cron"`
		OpenCron      string `yaml:"open_cron"`
		UniverseCron  string `yaml:"universe_cron"`
		PurgeCron     string `yaml:"purge_cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("SCAN_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scan.DelayMs = n
		}
	}
	if v := os.Getenv("SCAN_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scan.BatchSize = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Cache.SQLitePath = v
	}
	if v := os.Getenv("UNIVERSE_FILE"); v != "" {
		c.Universe.File = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("MARKET_HOLIDAYS"); v != "" {
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				c.Calendar.ExtraHolidays = append(c.Calendar.ExtraHolidays, d)
			}
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 10 * time.Second
	}
	if c.Scan.BatchSize == 0 {
		c.Scan.BatchSize = 50
	}
	if c.Scan.DelayMs == 0 {
		c.Scan.DelayMs = 1000
	}
	if c.Scan.MinGapPercent == 0 {
		c.Scan.MinGapPercent = 5
	}
	if c.Scan.MinVolume == 0 {
		c.Scan.MinVolume = 100000
	}
	if c.Scan.MaxPrice == 0 {
		c.Scan.MaxPrice = 500
	}
	if c.Scan.MinMarketCap == 0 {
		c.Scan.MinMarketCap = 50_000_000
	}
	if c.Scan.DefaultLimit == 0 {
		c.Scan.DefaultLimit = 5000
	}
	if c.Scan.TopN == 0 {
		c.Scan.TopN = 20
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/gap_sentinel.db"
	}
	if c.Cache.ResultTTL == 0 {
		c.Cache.ResultTTL = 24 * time.Hour
	}
	if c.Cache.QuoteTTL == 0 {
		c.Cache.QuoteTTL = 5 * time.Minute
	}
	if c.Universe.File == "" {
		c.Universe.File = "configs/universe.yaml"
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "America/New_York"
	}
	if c.Schedule.PremarketCron == "" {
		c.Schedule.PremarketCron = "0 0 8 * * 1-5"
	}
	if c.Schedule.OpenCron == "" {
		c.Schedule.OpenCron = "0 35 9 * * 1-5"
	}
	if c.Schedule.UniverseCron == "" {
		c.Schedule.UniverseCron = "0 0 6 * * 1"
	}
	if c.Schedule.PurgeCron == "" {
		c.Schedule.PurgeCron = "0 30 3 * * *"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// Validate checks that values are usable. The provider API key is not
// checked here: a scan without it fails with a configuration error.
func (c *Config) Validate() error {
	if c.Scan.BatchSize < 1 {
		return fmt.Errorf("scan.batch_size must be >= 1, got %d", c.Scan.BatchSize)
	}
	if c.Scan.DelayMs < 0 {
		return fmt.Errorf("scan.delay_ms must not be negative, got %d", c.Scan.DelayMs)
	}
	if c.Scan.MinGapPercent < 0 {
		return fmt.Errorf("scan.min_gap_percent must not be negative")
	}
	if c.Scan.MaxPrice <= 0 {
		return fmt.Errorf("scan.max_price must be positive")
	}
	if c.Scan.TopN < 1 {
		return fmt.Errorf("scan.top_n must be >= 1")
	}
	if c.Scan.DefaultLimit < 1 {
		return fmt.Errorf("scan.default_limit must be >= 1")
	}
	if c.Cache.ResultTTL <= 0 || c.Cache.QuoteTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Delay returns the pause between consecutive quote requests.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Scan.DelayMs) * time.Millisecond
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
