// Package cache provides the in-process read caches used in front of slower
// stores, plus a janitor that sweeps expired entries.
package cache

import (
	"context"
	"sync"
	"time"

	applog "kakebo/internal/log"
)

// Stats counts cache lookups.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cleaner is implemented by caches that can drop expired entries
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered caches until its context ends
type Janitor struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *applog.Logger
	wg     sync.WaitGroup
}

// NewJanitor creates a janitor that logs through logger (may be nil)
func NewJanitor(logger *applog.Logger) *Janitor {
	return &Janitor{logger: applog.OrDiscard(logger).WithComponent(applog.ComponentCache)}
}

// Register adds a cache to the sweep list
func (j *Janitor) Register(c Cleaner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Sweep cleans every registered cache once and returns the number of
// removed entries.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	caches := append([]Cleaner(nil), j.caches...)
	j.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Start sweeps every interval until ctx is cancelled. Call Wait to block
// until the loop has exited.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := j.Sweep(); n > 0 {
					j.logger.Debug("Expired cache entries removed", applog.FieldCount, n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until a started janitor has stopped
func (j *Janitor) Wait() {
	j.wg.Wait()
}
