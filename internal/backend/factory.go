package backend

import (
	"context"
	"fmt"

	"kakebo/internal/amqp"
	"kakebo/internal/cache"
	"kakebo/internal/entries/rest"
	applog "kakebo/internal/log"
	"kakebo/internal/metrics"
	"kakebo/internal/notify"
	"kakebo/internal/prefs"
	gsheet "kakebo/internal/sheets/google"
	"kakebo/internal/storage"
	"kakebo/internal/table"
	"kakebo/internal/tables"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger    *applog.Logger
	confirmer table.Confirmer

	dialAMQP func(url, exchange string, opts ...amqp.Option) (*amqp.Client, error)
}

// NewFactory creates a new factory. The confirmer gates destructive bulk
// actions of every table.
func NewFactory(logger *applog.Logger, confirmer table.Confirmer) *DefaultFactory {
	return &DefaultFactory{
		logger:    applog.OrDiscard(logger).WithComponent(applog.ComponentBackend),
		confirmer: confirmer,
		dialAMQP:  amqp.NewClient,
	}
}

// Create implements Factory.Create. The returned App owns every resource it
// opened; call Close when done.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	bgCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	app := &App{stop: stop, Metrics: metrics.New()}

	if err := f.build(ctx, bgCtx, app, config); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (f *DefaultFactory) build(ctx, bgCtx context.Context, app *App, config Config) error {
	durable, err := f.createPrefs(app, config)
	if err != nil {
		return err
	}
	app.Prefs = durable
	app.Metrics.WatchCache("prefs", durable.Cache())

	app.Janitor = cache.NewJanitor(f.logger)
	app.Janitor.Register(durable.Cache())
	if config.CacheSweepInterval > 0 && config.PrefsCacheTTL > 0 {
		app.Janitor.Start(bgCtx, config.CacheSweepInterval)
	}

	app.Notifier = f.createNotifier(app, config)

	if config.Sheets.SpreadsheetID != "" {
		exporter, err := gsheet.New(ctx, config.Sheets, f.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		app.Exporter = exporter
		f.logger.Info("Initialized Google Sheets export", "spreadsheet_id", config.Sheets.SpreadsheetID)
	}

	src, err := f.createSource(config)
	if err != nil {
		return err
	}
	registry, err := tables.Build(src, tables.Deps{
		Prefs:           durable,
		Notifier:        app.Notifier,
		Confirmer:       f.confirmer,
		Observer:        app.Metrics,
		Logger:          f.logger,
		Language:        config.Language,
		DefaultCurrency: config.DefaultCurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to open tables: %w", err)
	}
	app.Tables = registry

	if config.MetricsAddr != "" {
		app.bg.Add(1)
		go func() {
			defer app.bg.Done()
			if err := app.Metrics.Serve(bgCtx, config.MetricsAddr, f.logger); err != nil {
				f.logger.Error("Metrics server failed", applog.FieldError, err)
			}
		}()
	}
	return nil
}

func (f *DefaultFactory) createPrefs(app *App, config Config) (*prefs.Durable, error) {
	opts := []prefs.Option{prefs.WithLogger(f.logger)}
	if config.PrefsCacheSize > 0 {
		opts = append(opts, prefs.WithCacheSize(config.PrefsCacheSize))
	}
	if config.PrefsCacheTTL > 0 {
		opts = append(opts, prefs.WithCacheTTL(config.PrefsCacheTTL))
	}

	switch config.Prefs {
	case SQLitePrefs:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		app.onClose(repo.Close)
		f.logger.Info("Initialized SQLite prefs", "db_path", config.SQLiteDBPath)
		return prefs.NewDurable(prefs.NewSQLiteBackend(repo), opts...), nil
	case FilePrefs:
		f.logger.Debug("Initialized file prefs", "path", config.PrefsFile)
		return prefs.NewDurable(prefs.NewFileBackend(config.PrefsFile), opts...), nil
	case MemoryPrefs:
		return prefs.NewDurable(prefs.NewMemoryBackend(), opts...), nil
	default:
		return nil, fmt.Errorf("unsupported prefs backend: %s", config.Prefs)
	}
}

// createNotifier always logs; AMQP is added when a broker is reachable and
// skipped with a warning otherwise.
func (f *DefaultFactory) createNotifier(app *App, config Config) notify.Notifier {
	notifiers := notify.Multi{notify.NewLogNotifier(f.logger)}
	if config.AMQPURL == "" {
		return notifiers
	}

	opts := []amqp.Option{amqp.WithLogger(f.logger)}
	if config.AMQPQueue != "" {
		opts = append(opts, amqp.WithQueue(config.AMQPQueue))
	}
	client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, opts...)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", applog.FieldError, err)
		return notifiers
	}
	app.AMQP = client
	app.onClose(client.Close)
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	return append(notifiers, notify.NewAMQPNotifier(client, f.logger))
}

func (f *DefaultFactory) createSource(config Config) (tables.Source, error) {
	if config.APIURL == "" {
		f.logger.Info("Using in-memory entries", "seed_dir", config.SeedDir)
		return tables.Source{SeedDir: config.SeedDir}, nil
	}
	client, err := rest.NewClient(config.APIURL,
		rest.WithTimeout(config.HTTPTimeout),
		rest.WithLogger(f.logger),
	)
	if err != nil {
		return tables.Source{}, fmt.Errorf("failed to initialize API client: %w", err)
	}
	f.logger.Info("Using entry API", applog.FieldURL, config.APIURL)
	return tables.Source{Client: client}, nil
}
