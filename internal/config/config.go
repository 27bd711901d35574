package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Rhymond/go-money"
	"golang.org/x/text/language"

	applog "kakebo/internal/log"
)

// EnvFile names the TOML file overlaid on the defaults before the
// environment is applied.
const EnvFile = "KAKEBO_CONFIG"

type Config struct {
	// Entry API. Empty selects the in-memory backend seeded from SeedDir.
	APIURL      string        `toml:"api_url"`
	HTTPTimeout time.Duration `toml:"http_timeout"`
	SeedDir     string        `toml:"seed_dir"`

	// Preferences
	PrefsBackend       string        `toml:"prefs_backend"`
	PrefsFile          string        `toml:"prefs_file"`
	SQLiteDBPath       string        `toml:"sqlite_db_path"`
	PrefsCacheSize     int           `toml:"prefs_cache_size"`
	PrefsCacheTTL      time.Duration `toml:"prefs_cache_ttl"`
	CacheSweepInterval time.Duration `toml:"cache_sweep_interval"`

	// AMQP. Empty URL disables notification publishing.
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Google Sheets export
	SheetsID              string `toml:"sheets_id"`
	SheetsCredentialsFile string `toml:"sheets_credentials_file"`
	SheetsCredentialsJSON string `toml:"sheets_credentials_json"`

	// Metrics listen address, e.g. ":9090". Empty disables the server.
	MetricsAddr string `toml:"metrics_addr"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Presentation
	DefaultCurrency string `toml:"default_currency"`
	Locale          string `toml:"locale"`
	ConfirmMode     string `toml:"confirm_mode"`
}

var (
	validPrefsBackends = []string{"file", "sqlite", "memory"}
	validLogFormats    = []string{"text", "json"}
	validConfirmModes  = []string{"prompt", "always", "never"}
)

func defaults() *Config {
	return &Config{
		HTTPTimeout:        10 * time.Second,
		PrefsBackend:       "file",
		PrefsFile:          "./data/prefs.json",
		SQLiteDBPath:       "./data/kakebo.db",
		PrefsCacheSize:     100,
		PrefsCacheTTL:      time.Minute,
		CacheSweepInterval: 5 * time.Minute,
		AMQPExchange:       "kakebo",
		LogLevel:           "info",
		LogFormat:          "text",
		DefaultCurrency:    "EUR",
		Locale:             "en",
		ConfirmMode:        "prompt",
	}
}

// Load builds the configuration from defaults, the optional TOML file named
// by KAKEBO_CONFIG, and KAKEBO_* environment variables, in that order.
func Load() (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv(EnvFile)); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	cfg.APIURL = getEnv("KAKEBO_API_URL", cfg.APIURL)
	cfg.HTTPTimeout = getEnvDuration("KAKEBO_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.SeedDir = getEnv("KAKEBO_SEED_DIR", cfg.SeedDir)

	cfg.PrefsBackend = getEnv("KAKEBO_PREFS_BACKEND", cfg.PrefsBackend)
	cfg.PrefsFile = getEnv("KAKEBO_PREFS_FILE", cfg.PrefsFile)
	cfg.SQLiteDBPath = getEnv("KAKEBO_SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.PrefsCacheSize = getEnvInt("KAKEBO_PREFS_CACHE_SIZE", cfg.PrefsCacheSize)
	cfg.PrefsCacheTTL = getEnvDuration("KAKEBO_PREFS_CACHE_TTL", cfg.PrefsCacheTTL)
	cfg.CacheSweepInterval = getEnvDuration("KAKEBO_CACHE_SWEEP_INTERVAL", cfg.CacheSweepInterval)

	cfg.AMQPURL = getEnv("KAKEBO_AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("KAKEBO_AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("KAKEBO_AMQP_QUEUE", cfg.AMQPQueue)

	cfg.SheetsID = getEnv("KAKEBO_SHEETS_ID", cfg.SheetsID)
	cfg.SheetsCredentialsFile = getEnv("KAKEBO_SHEETS_CREDENTIALS_FILE", cfg.SheetsCredentialsFile)
	cfg.SheetsCredentialsJSON = getEnv("KAKEBO_SHEETS_CREDENTIALS_JSON", cfg.SheetsCredentialsJSON)

	cfg.MetricsAddr = getEnv("KAKEBO_METRICS_ADDR", cfg.MetricsAddr)

	cfg.LogLevel = getEnv("KAKEBO_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("KAKEBO_LOG_FORMAT", cfg.LogFormat)

	cfg.DefaultCurrency = strings.ToUpper(getEnv("KAKEBO_DEFAULT_CURRENCY", cfg.DefaultCurrency))
	cfg.Locale = getEnv("KAKEBO_LOCALE", cfg.Locale)
	cfg.ConfirmMode = getEnv("KAKEBO_CONFIRM", cfg.ConfirmMode)

	return cfg, nil
}

func (c *Config) overlay(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.APIURL != "" {
		if u, err := url.Parse(c.APIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		} else if u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
		}
	}
	if c.HTTPTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 100ms", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}
	if c.SeedDir != "" {
		if fi, err := os.Stat(c.SeedDir); err != nil || !fi.IsDir() {
			errors = append(errors, fmt.Sprintf("seed directory does not exist: %s", c.SeedDir))
		}
	}

	if !slices.Contains(validPrefsBackends, c.PrefsBackend) {
		errors = append(errors, fmt.Sprintf("invalid prefs backend '%s': must be one of %v", c.PrefsBackend, validPrefsBackends))
	}
	switch c.PrefsBackend {
	case "file":
		if c.PrefsFile == "" {
			errors = append(errors, "prefs file path cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath); msg != "" {
			errors = append(errors, msg)
		}
	}
	if c.PrefsCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid prefs cache size %d: must be at least 1", c.PrefsCacheSize))
	}
	if c.PrefsCacheTTL < 0 || c.PrefsCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid prefs cache TTL %v: must be between 0 and 24h", c.PrefsCacheTTL))
	}
	if c.CacheSweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache sweep interval %v: must be at least 1 second", c.CacheSweepInterval))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsCredentialsFile != "" {
		if _, err := os.Stat(c.SheetsCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.SheetsCredentialsFile))
		}
	}

	if c.MetricsAddr != "" {
		if _, port, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid metrics address '%s': %v", c.MetricsAddr, err))
		} else if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
			errors = append(errors, fmt.Sprintf("invalid metrics port '%s': must be between 1 and 65535", port))
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if money.GetCurrency(c.DefaultCurrency) == nil {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s'", c.DefaultCurrency))
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid locale '%s': %v", c.Locale, err))
	}
	if !slices.Contains(validConfirmModes, c.ConfirmMode) {
		errors = append(errors, fmt.Sprintf("invalid confirm mode '%s': must be one of %v", c.ConfirmMode, validConfirmModes))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SheetsEnabled reports whether a spreadsheet is configured for export.
func (c *Config) SheetsEnabled() bool { return c.SheetsID != "" }

// Language returns the parsed locale, falling back to English.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

func ensureDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
