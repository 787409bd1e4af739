package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/maltedev/listing-harvester/internal/models"
)

var (
	ErrNoFilters       = errors.New("config: at least one filter is required")
	ErrDuplicateFilter = errors.New("config: duplicate filter name")
)

const (
	DefaultNavigationWait = 5000 * time.Millisecond
	DefaultScrollDistance = 200
	DefaultScrollWait     = 500 * time.Millisecond
	DefaultSelector       = "span[data-test-row-lockup-full-name] a"
	DefaultPageSize       = 25
)

type Config struct {
	Filters  []models.Filter
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Output   OutputConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type ScraperConfig struct {
	NavigationWait time.Duration
	ScrollDistance int
	ScrollWait     time.Duration
	Selector       string
	PageSize       int
	OffsetParam    string
}

type BrowserConfig struct {
	Headless    bool
	Timeout     time.Duration
	UserAgent   string
	Locale      string
	TimezoneID  string
	ProxyServer string
}

type OutputConfig struct {
	Dir        string
	FilePrefix string
}

// DatabaseConfig enables the Postgres mirror when URL is set.
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig enables stream events when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// ServerConfig enables the status endpoints when StatusAddr is set.
type ServerConfig struct {
	StatusAddr string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// fileConfig mirrors the on-disk document. Optional fields are pointers so an
// explicit zero can be told apart from an absent key. Timings are milliseconds.
type fileConfig struct {
	Filters        []models.Filter `yaml:"filters"`
	NavigationWait *int            `yaml:"navigationWait"`
	ScrollDistance *int            `yaml:"scrollDistance"`
	ScrollWait     *int            `yaml:"scrollWait"`
	NameSelector   *string         `yaml:"nameSelector"`
	PageSize       *int            `yaml:"pageSize"`
	OffsetParam    *string         `yaml:"offsetParam"`
	Headless       *bool           `yaml:"headless"`
	UserAgent      *string         `yaml:"userAgent"`
	Locale         *string         `yaml:"locale"`
	Timezone       *string         `yaml:"timezone"`
	Proxy          *string         `yaml:"proxy"`
	OutputDir      *string         `yaml:"outputDir"`
	FilePrefix     *string         `yaml:"filePrefix"`
	DatabaseURL    *string         `yaml:"databaseUrl"`
	DatabaseMax    *int32          `yaml:"databaseMaxConns"`
	DatabaseMin    *int32          `yaml:"databaseMinConns"`
	RedisAddr      *string         `yaml:"redisAddr"`
	RedisStream    *string         `yaml:"redisStream"`
	StatusAddr     *string         `yaml:"statusAddr"`
	LogLevel       *string         `yaml:"logLevel"`
	LogFormat      *string         `yaml:"logFormat"`
}

func Default() *Config {
	return &Config{
		Scraper: ScraperConfig{
			NavigationWait: DefaultNavigationWait,
			ScrollDistance: DefaultScrollDistance,
			ScrollWait:     DefaultScrollWait,
			Selector:       DefaultSelector,
			PageSize:       DefaultPageSize,
			OffsetParam:    models.DefaultOffsetParam,
		},
		Browser: BrowserConfig{
			Headless: false,
			Timeout:  30 * time.Second,
			Locale:   "en-US",
		},
		Output: OutputConfig{
			Dir:        ".",
			FilePrefix: "linkedin_names_",
		},
		Database: DatabaseConfig{
			MaxConns:        4,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Stream: "stream:harvest",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads an optional .env, the config document at path (JSON or YAML),
// then environment overrides, and validates the result. Every default is
// resolved here; callers never see an unset optional field.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a config document over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	cfg.Filters = fc.Filters

	if fc.NavigationWait != nil {
		cfg.Scraper.NavigationWait = millis(*fc.NavigationWait)
	}
	if fc.ScrollDistance != nil {
		cfg.Scraper.ScrollDistance = *fc.ScrollDistance
	}
	if fc.ScrollWait != nil {
		cfg.Scraper.ScrollWait = millis(*fc.ScrollWait)
	}
	if fc.NameSelector != nil {
		cfg.Scraper.Selector = *fc.NameSelector
	}
	if fc.PageSize != nil {
		cfg.Scraper.PageSize = *fc.PageSize
	}
	if fc.OffsetParam != nil {
		cfg.Scraper.OffsetParam = *fc.OffsetParam
	}
	if fc.Headless != nil {
		cfg.Browser.Headless = *fc.Headless
	}
	if fc.UserAgent != nil {
		cfg.Browser.UserAgent = *fc.UserAgent
	}
	if fc.Locale != nil {
		cfg.Browser.Locale = *fc.Locale
	}
	if fc.Timezone != nil {
		cfg.Browser.TimezoneID = *fc.Timezone
	}
	if fc.Proxy != nil {
		cfg.Browser.ProxyServer = *fc.Proxy
	}
	if fc.OutputDir != nil {
		cfg.Output.Dir = *fc.OutputDir
	}
	if fc.FilePrefix != nil {
		cfg.Output.FilePrefix = *fc.FilePrefix
	}
	if fc.DatabaseURL != nil {
		cfg.Database.URL = *fc.DatabaseURL
	}
	if fc.DatabaseMax != nil {
		cfg.Database.MaxConns = *fc.DatabaseMax
	}
	if fc.DatabaseMin != nil {
		cfg.Database.MinConns = *fc.DatabaseMin
	}
	if fc.RedisAddr != nil {
		cfg.Redis.Addr = *fc.RedisAddr
	}
	if fc.RedisStream != nil {
		cfg.Redis.Stream = *fc.RedisStream
	}
	if fc.StatusAddr != nil {
		cfg.Server.StatusAddr = *fc.StatusAddr
	}
	if fc.LogLevel != nil {
		cfg.Logging.Level = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.Logging.Format = *fc.LogFormat
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Scraper.NavigationWait = getMillisOrDefault("HARVEST_NAVIGATION_WAIT", c.Scraper.NavigationWait)
	c.Scraper.ScrollDistance = getIntOrDefault("HARVEST_SCROLL_DISTANCE", c.Scraper.ScrollDistance)
	c.Scraper.ScrollWait = getMillisOrDefault("HARVEST_SCROLL_WAIT", c.Scraper.ScrollWait)
	c.Scraper.Selector = getEnvOrDefault("HARVEST_SELECTOR", c.Scraper.Selector)
	c.Browser.Headless = getBoolOrDefault("HARVEST_HEADLESS", c.Browser.Headless)
	c.Browser.Timeout = getDurationOrDefault("BROWSER_TIMEOUT", c.Browser.Timeout)
	c.Browser.UserAgent = getEnvOrDefault("BROWSER_USER_AGENT", c.Browser.UserAgent)
	c.Browser.Locale = getEnvOrDefault("BROWSER_LOCALE", c.Browser.Locale)
	c.Browser.TimezoneID = getEnvOrDefault("BROWSER_TIMEZONE", c.Browser.TimezoneID)
	c.Browser.ProxyServer = getEnvOrDefault("BROWSER_PROXY", c.Browser.ProxyServer)
	c.Output.Dir = getEnvOrDefault("HARVEST_OUTPUT_DIR", c.Output.Dir)
	c.Database.URL = getEnvOrDefault("DATABASE_URL", c.Database.URL)
	c.Database.MaxConns = int32(getIntOrDefault("DATABASE_MAX_CONNS", int(c.Database.MaxConns)))
	c.Database.MinConns = int32(getIntOrDefault("DATABASE_MIN_CONNS", int(c.Database.MinConns)))
	c.Database.MaxConnLifetime = getDurationOrDefault("DATABASE_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getDurationOrDefault("DATABASE_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Redis.Addr = getEnvOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getIntOrDefault("REDIS_DB", c.Redis.DB)
	c.Server.StatusAddr = getEnvOrDefault("STATUS_ADDR", c.Server.StatusAddr)
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", c.Logging.Format)
}

func (c *Config) Validate() error {
	if len(c.Filters) == 0 {
		return ErrNoFilters
	}

	seen := make(map[string]bool, len(c.Filters))
	for _, f := range c.Filters {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateFilter, f.Name)
		}
		seen[f.Name] = true
	}

	if c.Scraper.PageSize < 1 {
		return fmt.Errorf("config: pageSize must be at least 1")
	}
	if c.Scraper.ScrollDistance < 1 {
		return fmt.Errorf("config: scrollDistance must be at least 1")
	}
	if c.Scraper.NavigationWait < 0 || c.Scraper.ScrollWait < 0 {
		return fmt.Errorf("config: waits cannot be negative")
	}
	if strings.TrimSpace(c.Scraper.Selector) == "" {
		return fmt.Errorf("config: nameSelector cannot be empty")
	}
	if strings.TrimSpace(c.Scraper.OffsetParam) == "" {
		return fmt.Errorf("config: offsetParam cannot be empty")
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("config: databaseMinConns must be between 0 and databaseMaxConns")
	}

	return nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getMillisOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return millis(i)
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
