package backend

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	"kakebo/internal/config"
	gsheet "kakebo/internal/sheets/google"
)

// PrefsType selects where sort preferences are persisted.
type PrefsType string

const (
	FilePrefs   PrefsType = "file"
	SQLitePrefs PrefsType = "sqlite"
	MemoryPrefs PrefsType = "memory"
)

func (t PrefsType) String() string { return string(t) }

func (t PrefsType) IsValid() bool {
	switch t {
	case FilePrefs, SQLitePrefs, MemoryPrefs:
		return true
	}
	return false
}

// Config holds configuration for App creation
type Config struct {
	APIURL      string
	HTTPTimeout time.Duration
	SeedDir     string

	Prefs              PrefsType
	PrefsFile          string
	SQLiteDBPath       string
	PrefsCacheSize     int
	PrefsCacheTTL      time.Duration
	CacheSweepInterval time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Sheets gsheet.Config

	MetricsAddr string

	DefaultCurrency string
	Language        language.Tag
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	prefsType := PrefsType(appConfig.PrefsBackend)
	if !prefsType.IsValid() {
		return Config{}, fmt.Errorf("invalid prefs backend in config: %s", appConfig.PrefsBackend)
	}

	return Config{
		APIURL:      appConfig.APIURL,
		HTTPTimeout: appConfig.HTTPTimeout,
		SeedDir:     appConfig.SeedDir,

		Prefs:              prefsType,
		PrefsFile:          appConfig.PrefsFile,
		SQLiteDBPath:       appConfig.SQLiteDBPath,
		PrefsCacheSize:     appConfig.PrefsCacheSize,
		PrefsCacheTTL:      appConfig.PrefsCacheTTL,
		CacheSweepInterval: appConfig.CacheSweepInterval,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Sheets: gsheet.Config{
			SpreadsheetID:   appConfig.SheetsID,
			CredentialsJSON: appConfig.SheetsCredentialsJSON,
			CredentialsFile: appConfig.SheetsCredentialsFile,
		},

		MetricsAddr: appConfig.MetricsAddr,

		DefaultCurrency: appConfig.DefaultCurrency,
		Language:        appConfig.Language(),
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Prefs.IsValid() {
		return fmt.Errorf("invalid prefs backend: %s", c.Prefs)
	}

	switch c.Prefs {
	case SQLitePrefs:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite prefs")
		}
	case FilePrefs:
		if c.PrefsFile == "" {
			return fmt.Errorf("prefs file path is required for file prefs")
		}
	case MemoryPrefs:
	}

	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return fmt.Errorf("AMQP exchange is required when an AMQP URL is set")
	}
	return nil
}

// GetPrefsTypes returns all valid prefs backend types
func GetPrefsTypes() []PrefsType {
	return []PrefsType{FilePrefs, SQLitePrefs, MemoryPrefs}
}
