// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values, validate

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-jobfeed-crawler/internal/scraper"
	"go-jobfeed-crawler/utils"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Telegram        TelegramConfig `yaml:"telegram"`
	Paths           PathsConfig    `yaml:"paths"`
	Browser         BrowserConfig  `yaml:"browser"`
	Crawl           CrawlConfig    `yaml:"crawl"`
	Server          ServerConfig   `yaml:"server"`
	Log             LogConfig      `yaml:"log"`
	DatabaseURL     string         `yaml:"database_url" env:"DATABASE_URL"`
	RedisAddr       string         `yaml:"redis_addr" env:"REDIS_ADDR"`
	ExcludeKeywords []string       `yaml:"exclude_keywords"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

type PathsConfig struct {
	Cookies     string `yaml:"cookies"`
	Cache       string `yaml:"cache"`
	Screenshots string `yaml:"screenshots"`
	Results     string `yaml:"results"`
}

type BrowserConfig struct {
	Headless       *bool  `yaml:"headless"`
	UserAgent      string `yaml:"user_agent"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
}

// CrawlConfig mirrors scraper.Options; durations are milliseconds
type CrawlConfig struct {
	MaxPasses         int     `yaml:"max_passes"`
	StablePasses      int     `yaml:"stable_passes"`
	ScrollStep        float64 `yaml:"scroll_step"`
	PauseMinMS        int     `yaml:"pause_min_ms"`
	PauseMaxMS        int     `yaml:"pause_max_ms"`
	NavigationTimeout int     `yaml:"navigation_timeout_ms"`
	FirstRootTimeout  int     `yaml:"first_root_timeout_ms"`
	EnrichTimeout     int     `yaml:"enrich_timeout_ms"`
	PopupTimeout      int     `yaml:"popup_timeout_ms"`
	RequireEmployer   bool    `yaml:"require_employer"`
	// DefaultCap applies when a request does not set one.
	DefaultCap int `yaml:"default_cap"`
}

type ServerConfig struct {
	Port           string `yaml:"port" env:"PORT"`
	MaxConcurrent  int64  `yaml:"max_concurrent"`
	RequestTimeout int    `yaml:"request_timeout_s"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads .env and the default config file
func Load() (*Config, error) {
	return LoadFrom(DefaultPath)
}

// LoadFrom reads .env and the YAML file at path. A missing file is not an error;
// every setting has a default or an env override.
func LoadFrom(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults and env only
	case err != nil:
		return nil, errors.Wrapf(err, "read %s", path)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid TELEGRAM_CHAT_ID")
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Paths.Cookies == "" {
		c.Paths.Cookies = "../.cookies"
	}
	if c.Paths.Cache == "" {
		c.Paths.Cache = "../.cache"
	}
	if c.Paths.Screenshots == "" {
		c.Paths.Screenshots = "logs/screenshots"
	}
	if c.Paths.Results == "" {
		c.Paths.Results = "logs"
	}
	if c.Browser.Headless == nil {
		headless := true
		c.Browser.Headless = &headless
	}

	def := scraper.DefaultOptions()
	setInt(&c.Crawl.MaxPasses, def.MaxPasses)
	setInt(&c.Crawl.StablePasses, def.StablePasses)
	if c.Crawl.ScrollStep <= 0 {
		c.Crawl.ScrollStep = def.ScrollStep
	}
	if c.Crawl.PauseMinMS <= 0 && c.Crawl.PauseMaxMS <= 0 {
		c.Crawl.PauseMinMS = int(def.Pace.Min.Milliseconds())
		c.Crawl.PauseMaxMS = int(def.Pace.Max.Milliseconds())
	}
	setInt(&c.Crawl.NavigationTimeout, int(def.NavigationTimeout.Milliseconds()))
	setInt(&c.Crawl.FirstRootTimeout, int(def.FirstRootTimeout.Milliseconds()))
	setInt(&c.Crawl.EnrichTimeout, int(def.EnrichTimeout.Milliseconds()))
	setInt(&c.Crawl.PopupTimeout, int(def.PopupTimeout.Milliseconds()))
	setInt(&c.Crawl.DefaultCap, 50)

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.MaxConcurrent <= 0 {
		c.Server.MaxConcurrent = 2
	}
	setInt(&c.Server.RequestTimeout, 300)

	logDef := utils.DefaultLogConfig()
	if c.Log.Level == "" {
		c.Log.Level = logDef.Level
	}
	if c.Log.Dir == "" {
		c.Log.Dir = logDef.LogDir
	}
	setInt(&c.Log.MaxSizeMB, logDef.MaxSize)
	setInt(&c.Log.MaxBackups, logDef.MaxBackups)
	setInt(&c.Log.MaxAgeDays, logDef.MaxAge)
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func (c *Config) Validate() error {
	if c.Crawl.PauseMaxMS < c.Crawl.PauseMinMS {
		return errors.Newf("crawl.pause_max_ms (%d) is below pause_min_ms (%d)", c.Crawl.PauseMaxMS, c.Crawl.PauseMinMS)
	}
	if c.Crawl.StablePasses > c.Crawl.MaxPasses {
		return errors.Newf("crawl.stable_passes (%d) exceeds max_passes (%d)", c.Crawl.StablePasses, c.Crawl.MaxPasses)
	}
	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications can be sent
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

// Options converts the crawl section to engine tunables
func (c CrawlConfig) Options() scraper.Options {
	opts := scraper.DefaultOptions()
	opts.MaxPasses = c.MaxPasses
	opts.StablePasses = c.StablePasses
	opts.ScrollStep = c.ScrollStep
	opts.Pace = scraper.Pacer{
		Min: time.Duration(c.PauseMinMS) * time.Millisecond,
		Max: time.Duration(c.PauseMaxMS) * time.Millisecond,
	}
	opts.NavigationTimeout = time.Duration(c.NavigationTimeout) * time.Millisecond
	opts.FirstRootTimeout = time.Duration(c.FirstRootTimeout) * time.Millisecond
	opts.EnrichTimeout = time.Duration(c.EnrichTimeout) * time.Millisecond
	opts.PopupTimeout = time.Duration(c.PopupTimeout) * time.Millisecond
	opts.RequireEmployer = c.RequireEmployer
	return opts
}

// Logger converts the log section for utils.InitLogger
func (l LogConfig) Logger() utils.LogConfig {
	return utils.LogConfig{
		Level:      l.Level,
		LogDir:     l.Dir,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
		Compress:   l.Compress,
	}
}
