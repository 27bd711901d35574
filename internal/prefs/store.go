// Package prefs is the durable key/value store that keeps per-table user
// preferences. Callers never see storage errors: a failing backend degrades
// the store to memory and logs a warning.
package prefs

import (
	"context"
	"errors"
	"sync"
	"time"

	"kakebo/internal/cache"
	applog "kakebo/internal/log"
)

// Prefix namespaces every key written by this application.
const Prefix = "kakebo."

// SortKey is the key holding the sort preference of tableID.
func SortKey(tableID string) string {
	return Prefix + "sort." + tableID
}

// ErrNotFound is returned by a Backend for a key it does not hold.
var ErrNotFound = errors.New("key not found")

// Store is the infallible view of preferences used by the sort engine.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Backend is a fallible durable storage.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Durable adapts a Backend into a Store. Reads go through an LRU cache;
// once the backend fails the store keeps serving and accepting values from
// memory only.
type Durable struct {
	backend   Backend
	cache     *cache.LRUCache[string]
	cacheSize int
	cacheTTL  time.Duration
	logger    *applog.Logger
	timeout   time.Duration
	mu        sync.Mutex
	fallback  map[string]string
	degraded  bool
}

// Option configures a Durable store.
type Option func(*Durable)

// WithLogger sets the logger used to report backend failures.
func WithLogger(l *applog.Logger) Option {
	return func(d *Durable) { d.logger = applog.OrDiscard(l).WithComponent(applog.ComponentPrefs) }
}

// WithCacheSize bounds the read cache.
func WithCacheSize(n int) Option {
	return func(d *Durable) { d.cacheSize = n }
}

// WithCacheTTL makes cached reads expire, so values written by another
// process are picked up again. Zero caches until eviction.
func WithCacheTTL(ttl time.Duration) Option {
	return func(d *Durable) { d.cacheTTL = ttl }
}

// WithTimeout bounds each backend call.
func WithTimeout(t time.Duration) Option {
	return func(d *Durable) { d.timeout = t }
}

// NewDurable wraps backend. A nil backend yields a memory-only store.
func NewDurable(backend Backend, opts ...Option) *Durable {
	d := &Durable{
		backend:   backend,
		cacheSize: 128,
		logger:    applog.Discard(),
		timeout:   2 * time.Second,
		fallback:  make(map[string]string),
		degraded:  backend == nil,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = cache.NewLRUCache[string](d.cacheSize, d.cacheTTL)
	return d
}

// Cache exposes the read cache, for registration with a janitor or stats.
func (d *Durable) Cache() *cache.LRUCache[string] { return d.cache }

// Degraded reports whether the store has fallen back to memory.
func (d *Durable) Degraded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.degraded
}

func (d *Durable) degrade(op, key string, err error) {
	d.mu.Lock()
	first := !d.degraded
	d.degraded = true
	d.mu.Unlock()
	if first {
		d.logger.Warn("Preference backend unavailable, keeping preferences in memory",
			applog.NewFields().WithOperation(op).WithError(err).WithErrorType(applog.ErrorTypeStorage).ToSlice()...)
		return
	}
	d.logger.Debug("Preference backend still unavailable", applog.FieldOperation, op, applog.FieldKey, key, applog.FieldError, err)
}

// Get returns the value stored under key.
func (d *Durable) Get(key string) (string, bool) {
	if v, ok := d.cache.Get(key); ok {
		return v, true
	}

	d.mu.Lock()
	if v, ok := d.fallback[key]; ok {
		d.mu.Unlock()
		return v, true
	}
	degraded := d.degraded
	d.mu.Unlock()
	if degraded {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	v, err := d.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false
	}
	if err != nil {
		d.degrade("get", key, err)
		return "", false
	}
	d.cache.Set(key, v)
	return v, true
}

// Set stores value under key. The value is always readable afterwards, even
// when the backend write fails.
func (d *Durable) Set(key, value string) {
	d.cache.Set(key, value)

	d.mu.Lock()
	degraded := d.degraded
	if degraded {
		d.fallback[key] = value
	}
	d.mu.Unlock()
	if degraded {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.backend.Set(ctx, key, value); err != nil {
		d.mu.Lock()
		d.fallback[key] = value
		d.mu.Unlock()
		d.degrade("set", key, err)
	}
}
