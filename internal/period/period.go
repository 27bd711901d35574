// Package period models the reporting month that drives every table fetch
// and the shared context tables subscribe to for changes.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

var ErrInvalidKey = errors.New("invalid period key")

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// Of returns the period t falls into.
func Of(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParseKey parses a "YYYY-MM" key. Months outside 01-12 are rejected.
func ParseKey(key string) (Period, error) {
	key = strings.TrimSpace(key)
	y, m, ok := strings.Cut(key, "-")
	if !ok || len(y) != 4 || len(m) != 2 {
		return Period{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidKey, key)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q (month must be 01-12)", ErrInvalidKey, key)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Key formats the period as "YYYY-MM".
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) String() string { return p.Key() }

// Next returns the following month.
func (p Period) Next() Period { return p.add(1) }

// Prev returns the preceding month.
func (p Period) Prev() Period { return p.add(-1) }

func (p Period) add(months int) Period {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	return Of(t)
}

// Context holds the currently selected period and fans changes out to
// subscribers. It is safe for concurrent use; subscribers are called
// synchronously, outside the lock, in subscription order.
type Context struct {
	mu      sync.Mutex
	current Period
	nextID  int
	subs    []subscriber
}

type subscriber struct {
	id int
	fn func(Period)
}

// NewContext returns a context positioned on p.
func NewContext(p Period) *Context {
	return &Context{current: p}
}

// Current returns the selected period.
func (c *Context) Current() Period {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set selects p and notifies subscribers when it differs from the current one.
func (c *Context) Set(p Period) {
	c.mu.Lock()
	if p == c.current {
		c.mu.Unlock()
		return
	}
	c.current = p
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(p)
	}
}

// Next moves the context one month forward.
func (c *Context) Next() { c.Set(c.Current().Next()) }

// Prev moves the context one month back.
func (c *Context) Prev() { c.Set(c.Current().Prev()) }

// Subscribe registers fn for period changes and returns a function that
// removes the subscription. The returned function is idempotent.
func (c *Context) Subscribe(fn func(Period)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}
