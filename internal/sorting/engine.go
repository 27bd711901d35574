// Package sorting orders table rows by one column with a three-state
// asc/desc/none cycle and remembers the choice per table.
package sorting

import (
	"encoding/json"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	applog "kakebo/internal/log"
	"kakebo/internal/prefs"
)

// Direction of the active sort. The empty value means unsorted.
type Direction string

const (
	None Direction = ""
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// State is the active sort. Column is empty exactly when Direction is None.
type State struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Valid reports whether s satisfies the column/direction pairing.
func (s State) Valid() bool {
	switch s.Direction {
	case None:
		return s.Column == ""
	case Asc, Desc:
		return s.Column != ""
	default:
		return false
	}
}

// Column maps a column key to the value rows are compared on. Value may
// return nil (or a nil pointer) for missing data.
type Column[T any] struct {
	Key   string
	Value func(T) any
}

// Engine holds the sort state of one table.
type Engine[T any] struct {
	tableID string
	store   prefs.Store
	logger  *applog.Logger
	lang    language.Tag
	columns map[string]Column[T]
	order   []string

	mu       sync.Mutex
	state    State
	collator *collate.Collator
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	lang   language.Tag
	logger *applog.Logger
}

// WithLanguage selects the collation used for text columns.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) { o.lang = tag }
}

// WithLogger sets the engine logger.
func WithLogger(l *applog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates the engine for tableID and restores its saved sort from store.
// A nil store keeps state in memory only.
func New[T any](tableID string, store prefs.Store, columns []Column[T], opts ...Option) *Engine[T] {
	o := options{lang: language.Und}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine[T]{
		tableID:  tableID,
		store:    store,
		logger:   applog.OrDiscard(o.logger).WithTable(applog.ComponentSort, tableID),
		lang:     o.lang,
		columns:  make(map[string]Column[T], len(columns)),
		collator: collate.New(o.lang, collate.IgnoreCase),
	}
	for _, c := range columns {
		if _, dup := e.columns[c.Key]; !dup {
			e.order = append(e.order, c.Key)
		}
		e.columns[c.Key] = c
	}
	e.state = e.load()
	return e
}

func (e *Engine[T]) load() State {
	if e.store == nil {
		return State{}
	}
	raw, ok := e.store.Get(prefs.SortKey(e.tableID))
	if !ok || raw == "" || raw == "null" {
		return State{}
	}
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		e.logger.Warn("Ignoring unreadable sort preference", applog.FieldKey, prefs.SortKey(e.tableID), applog.FieldError, err)
		return State{}
	}
	if !s.Valid() {
		e.logger.Warn("Ignoring invalid sort preference", applog.FieldColumn, s.Column, applog.FieldDirection, s.Direction)
		return State{}
	}
	if _, known := e.columns[s.Column]; s.Column != "" && !known {
		e.logger.Warn("Ignoring sort preference for unknown column", applog.FieldColumn, s.Column)
		return State{}
	}
	return s
}

func (e *Engine[T]) save(s State) {
	if e.store == nil {
		return
	}
	raw := "null"
	if s.Direction != None {
		b, err := json.Marshal(s)
		if err != nil {
			e.logger.Error("Failed to encode sort preference", applog.FieldError, err)
			return
		}
		raw = string(b)
	}
	e.store.Set(prefs.SortKey(e.tableID), raw)
}

// RequestSort applies one click on column: a new column starts ascending,
// the active column moves asc, desc, then back to unsorted.
func (e *Engine[T]) RequestSort(column string) State {
	e.mu.Lock()
	if _, known := e.columns[column]; !known {
		s := e.state
		e.mu.Unlock()
		e.logger.Debug("Sort requested on unknown column", applog.FieldColumn, column)
		return s
	}
	next := State{Column: column, Direction: Asc}
	if e.state.Column == column {
		switch e.state.Direction {
		case Asc:
			next.Direction = Desc
		case Desc:
			next = State{}
		}
	}
	e.state = next
	e.mu.Unlock()

	e.save(next)
	e.logger.Debug("Sort changed", applog.FieldColumn, next.Column, applog.FieldDirection, next.Direction)
	return next
}

// State returns the active sort.
func (e *Engine[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetState replaces the active sort and persists it. Invalid states or
// unknown columns are rejected and leave the current state untouched.
func (e *Engine[T]) SetState(s State) bool {
	if !s.Valid() {
		return false
	}
	if _, known := e.columns[s.Column]; s.Column != "" && !known {
		return false
	}
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.save(s)
	return true
}

// Reset clears the sort.
func (e *Engine[T]) Reset() { e.SetState(State{}) }

// Columns lists the sortable column keys in declaration order.
func (e *Engine[T]) Columns() []string {
	return slices.Clone(e.order)
}

// View returns data ordered by the active sort. The input is never modified;
// with no active sort the result is a copy in the original order. Ties keep
// their original relative order.
func (e *Engine[T]) View(data []T) []T {
	out := slices.Clone(data)
	if out == nil {
		out = []T{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Direction == None {
		return out
	}
	col, ok := e.columns[e.state.Column]
	if !ok {
		return out
	}

	type keyed struct {
		row T
		val normalized
	}
	rows := make([]keyed, len(out))
	for i, r := range out {
		rows[i] = keyed{row: r, val: normalize(col.Value(r))}
	}
	desc := e.state.Direction == Desc
	slices.SortStableFunc(rows, func(a, b keyed) int {
		return compare(e.collator, a.val, b.val, desc)
	})
	for i := range rows {
		out[i] = rows[i].row
	}
	return out
}
