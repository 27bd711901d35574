// Package cli provides the kakebo command line: initialization helpers and
// the cobra command tree that drives the tables.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kakebo/internal/backend"
	"kakebo/internal/config"
	"kakebo/internal/confirm"
	applog "kakebo/internal/log"
	"kakebo/internal/table"
)

// SetupLogger initializes structured logging from the configuration and sets
// it as the default logger. Logs go to w so they never mix with command
// output.
func SetupLogger(cfg *config.Config, w io.Writer) *applog.Logger {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentCLI,
		Format:    cfg.LogFormat,
		Output:    w,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfirmer maps the configured confirm mode onto a Confirmer. Prompts
// read from in and are written to out.
func NewConfirmer(mode string, in io.Reader, out io.Writer) table.Confirmer {
	switch mode {
	case "always":
		return confirm.Always(true)
	case "never":
		return confirm.Always(false)
	default:
		return confirm.NewPrompt(in, out)
	}
}

// OpenApp loads the environment and configuration and assembles the App.
func OpenApp(ctx context.Context, in io.Reader, out, errOut io.Writer, assumeYes bool) (*backend.App, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg, errOut)

	confirmer := NewConfirmer(cfg.ConfirmMode, in, errOut)
	if assumeYes {
		confirmer = confirm.Always(true)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	app, err := backend.NewFactory(logger, confirmer).Create(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("initialize backend: %w", err)
	}
	return app, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
