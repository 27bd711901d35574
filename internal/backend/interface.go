package backend

import (
	"context"
	"errors"
	"sync"

	"kakebo/internal/amqp"
	"kakebo/internal/cache"
	"kakebo/internal/metrics"
	"kakebo/internal/notify"
	"kakebo/internal/prefs"
	"kakebo/internal/sheets"
	"kakebo/internal/tables"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// App is everything a front end needs to drive the tables.
type App struct {
	Tables   *tables.Registry
	Prefs    *prefs.Durable
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Janitor  *cache.Janitor

	// AMQP is nil when no broker is configured.
	AMQP *amqp.Client
	// Exporter is nil when no spreadsheet is configured.
	Exporter sheets.Exporter

	stop      context.CancelFunc
	bg        sync.WaitGroup
	cleanups  []CleanupFunc
	closeOnce sync.Once
	closeErr  error
}

// Close stops background work and releases resources in reverse order of
// acquisition. It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.Tables != nil {
			a.Tables.Close()
		}
		if a.stop != nil {
			a.stop()
		}
		a.bg.Wait()
		if a.Janitor != nil {
			a.Janitor.Wait()
		}
		var errs []error
		for i := len(a.cleanups) - 1; i >= 0; i-- {
			if err := a.cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

func (a *App) onClose(fn CleanupFunc) {
	a.cleanups = append(a.cleanups, fn)
}

// Factory creates an App based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*App, error)
}
