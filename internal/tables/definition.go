// Package tables declares every entry table of the application: its
// columns, form rules, defaults and the backends it can talk to. Each
// definition is turned into a table.Controller and exposed through the
// type-erased Table interface the command line drives.
package tables

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/text/language"

	"kakebo/internal/core"
	"kakebo/internal/entries/memory"
	"kakebo/internal/entries/rest"
	applog "kakebo/internal/log"
	"kakebo/internal/period"
	"kakebo/internal/prefs"
	"kakebo/internal/sorting"
	"kakebo/internal/table"
)

// ScopeMonth is the scope parameter of period-scoped tables.
const ScopeMonth = "month"

// Column is one displayed column.
type Column[T any] struct {
	Key   string
	Label string
	// Value is the sort key.
	Value func(T) any
	// Text renders the cell. Nil falls back to formatting Value.
	Text func(T) string
}

// Definition describes one entity table.
type Definition[T core.Entry, D any, P any] struct {
	ID     string // preference id, e.g. "incomeTable"
	Name   string // command line name, e.g. "income"
	Labels table.Labels
	// Scope is the query parameter GetAll filters on: ScopeMonth, a parent
	// id parameter, or "" for unscoped tables.
	Scope string

	Columns     []Column[T]
	CreateRules table.Rules[D]
	UpdateRules table.Rules[P]

	NewDraft      func() D
	EditValues    func(T) P
	PrepareCreate func(d D, defaultCurrency string) D
	PrepareUpdate func(T, P) P

	// Draft and Patch overlay typed form values.
	Draft func(D, Values) (D, error)
	Patch func(P, Values) (P, error)

	Currency func(T) string

	Memory    memory.Funcs[T, D, P]
	MemoryAPI func(*memory.Store[T, D, P]) table.EntryAPI[T, D, P]
	REST      func(*rest.Client) table.EntryAPI[T, D, P]
}

// Deps are the collaborators shared by every table.
type Deps struct {
	Prefs           prefs.Store
	Notifier        table.Notifier
	Confirmer       table.Confirmer
	Observer        table.Observer
	Logger          *applog.Logger
	Language        language.Tag
	DefaultCurrency string
}

// Header is a column as shown to the user.
type Header struct {
	Key   string
	Label string
}

// FieldInfo describes one form field without its validator.
type FieldInfo struct {
	Key      string
	Label    string
	Kind     table.FieldKind
	Options  []string
	Required bool
}

// Row is one displayed entry.
type Row struct {
	ID     int64
	Cells  []string
	Amount float64
	Entry  any
}

// Capabilities lists the optional verbs the backend supports.
type Capabilities struct {
	BulkDelete bool
	BulkUpdate bool
	Merge      bool
}

// Table is the entity-agnostic face of a controller.
type Table interface {
	ID() string
	Name() string
	Labels() table.Labels
	Scope() string
	Headers() []Header
	CreateFields() []FieldInfo
	UpdateFields() []FieldInfo
	Capabilities() Capabilities

	Fetch(ctx context.Context, key string) table.Result
	Refresh(ctx context.Context) table.Result
	PeriodKey() string
	Rows() []Row
	Total() float64
	Currency() string
	Loading() bool
	Err() error

	RequestSort(column string) sorting.State
	SortState() sorting.State

	Create(ctx context.Context, v Values) table.Result
	Update(ctx context.Context, id int64, v Values) table.Result
	Delete(ctx context.Context, id int64) table.Result
	BulkDelete(ctx context.Context, ids []int64) table.Result
	BulkUpdate(ctx context.Context, ids []int64, v Values) table.Result
	Merge(ctx context.Context, ids []int64) table.Result

	SelectAll() int
	Select(id int64) bool
	Selected() []int64
	ClearSelection()

	Bind(ctx context.Context, pc *period.Context)
	Wait()
	Close()
}

type handle[T core.Entry, D any, P any] struct {
	def             Definition[T, D, P]
	ctrl            *table.Controller[T, D, P]
	api             table.EntryAPI[T, D, P]
	defaultCurrency string
}

// Open builds the controller of def over api.
func Open[T core.Entry, D any, P any](def Definition[T, D, P], api table.EntryAPI[T, D, P], deps Deps) (Table, error) {
	cur := orDefault(deps.DefaultCurrency, core.DefaultCurrency)
	columns := make([]sorting.Column[T], len(def.Columns))
	for i, c := range def.Columns {
		columns[i] = sorting.Column[T]{Key: c.Key, Value: c.Value}
	}
	var prepare func(D) D
	if def.PrepareCreate != nil {
		prepare = func(d D) D { return def.PrepareCreate(d, cur) }
	}

	ctrl, err := table.New(table.Config[T, D, P]{
		TableID:       def.ID,
		Labels:        def.Labels,
		API:           api,
		CreateRules:   def.CreateRules,
		UpdateRules:   def.UpdateRules,
		NewDraft:      def.NewDraft,
		EditValues:    def.EditValues,
		PrepareCreate: prepare,
		PrepareUpdate: def.PrepareUpdate,
		Columns:       columns,
		Prefs:         deps.Prefs,
		Language:      deps.Language,
		Notifier:      deps.Notifier,
		Confirmer:     deps.Confirmer,
		Observer:      deps.Observer,
		Logger:        deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &handle[T, D, P]{def: def, ctrl: ctrl, api: api, defaultCurrency: cur}, nil
}

func (h *handle[T, D, P]) ID() string           { return h.def.ID }
func (h *handle[T, D, P]) Name() string         { return h.def.Name }
func (h *handle[T, D, P]) Labels() table.Labels { return h.def.Labels }
func (h *handle[T, D, P]) Scope() string        { return h.def.Scope }

func (h *handle[T, D, P]) Headers() []Header {
	out := make([]Header, len(h.def.Columns))
	for i, c := range h.def.Columns {
		out[i] = Header{Key: c.Key, Label: c.Label}
	}
	return out
}

func fieldInfo[V any](rules table.Rules[V]) []FieldInfo {
	out := make([]FieldInfo, len(rules))
	for i, f := range rules {
		out[i] = FieldInfo{Key: f.Key, Label: f.Label, Kind: f.Kind, Options: f.Options, Required: f.Required}
	}
	return out
}

func (h *handle[T, D, P]) CreateFields() []FieldInfo { return fieldInfo(h.def.CreateRules) }
func (h *handle[T, D, P]) UpdateFields() []FieldInfo { return fieldInfo(h.def.UpdateRules) }

func (h *handle[T, D, P]) Capabilities() Capabilities {
	_, bd := h.api.(table.BulkDeleter)
	_, bu := h.api.(table.BulkUpdater[P])
	_, m := h.api.(table.Merger[T])
	return Capabilities{BulkDelete: bd, BulkUpdate: bu, Merge: m}
}

func (h *handle[T, D, P]) Fetch(ctx context.Context, key string) table.Result {
	return h.ctrl.Fetch(ctx, key)
}

func (h *handle[T, D, P]) Refresh(ctx context.Context) table.Result { return h.ctrl.Refresh(ctx) }
func (h *handle[T, D, P]) PeriodKey() string                        { return h.ctrl.PeriodKey() }
func (h *handle[T, D, P]) Loading() bool                            { return h.ctrl.Loading() }
func (h *handle[T, D, P]) Err() error                               { return h.ctrl.Err() }

func (h *handle[T, D, P]) Rows() []Row {
	view := h.ctrl.View()
	rows := make([]Row, len(view))
	for i, e := range view {
		cells := make([]string, len(h.def.Columns))
		for j, c := range h.def.Columns {
			if c.Text != nil {
				cells[j] = c.Text(e)
			} else {
				cells[j] = formatCell(c.Value(e))
			}
		}
		rows[i] = Row{ID: e.EntryID(), Cells: cells, Amount: e.EntryAmount(), Entry: e}
	}
	return rows
}

func (h *handle[T, D, P]) Total() float64 { return h.ctrl.TotalShown(nil) }

// Currency is the currency of the displayed entries, or the default when
// the table is empty or has no currency column.
func (h *handle[T, D, P]) Currency() string {
	if h.def.Currency == nil {
		return h.defaultCurrency
	}
	for _, e := range h.ctrl.View() {
		if c := h.def.Currency(e); c != "" {
			return c
		}
	}
	return h.defaultCurrency
}

func (h *handle[T, D, P]) RequestSort(column string) sorting.State { return h.ctrl.RequestSort(column) }
func (h *handle[T, D, P]) SortState() sorting.State                { return h.ctrl.SortState() }

// formError reports a malformed form value the same way a failed rule is
// reported.
func (h *handle[T, D, P]) formError(err error) table.Result {
	return table.Result{Message: core.Message(err)}
}

func (h *handle[T, D, P]) Create(ctx context.Context, v Values) table.Result {
	if err := v.Only(h.def.CreateRules.Keys()); err != nil {
		return h.formError(err)
	}
	draft, err := h.def.Draft(h.ctrl.OpenCreate(), v)
	if err != nil {
		h.ctrl.CloseCreate()
		return h.formError(err)
	}
	return h.ctrl.Create(ctx, draft)
}

func (h *handle[T, D, P]) Update(ctx context.Context, id int64, v Values) table.Result {
	if err := v.Only(h.def.UpdateRules.Keys()); err != nil {
		return h.formError(err)
	}
	entry, ok := h.ctrl.Find(id)
	if !ok {
		return h.formError(&core.NotFoundError{Resource: h.def.Labels.Singular, ID: id})
	}
	patch, err := h.def.Patch(h.ctrl.OpenEdit(entry), v)
	if err != nil {
		h.ctrl.CloseEdit()
		return h.formError(err)
	}
	return h.ctrl.Update(ctx, patch)
}

func (h *handle[T, D, P]) Delete(ctx context.Context, id int64) table.Result {
	return h.ctrl.Delete(ctx, id)
}

func (h *handle[T, D, P]) BulkDelete(ctx context.Context, ids []int64) table.Result {
	return h.ctrl.BulkDelete(ctx, ids)
}

func (h *handle[T, D, P]) BulkUpdate(ctx context.Context, ids []int64, v Values) table.Result {
	if err := v.Only(h.def.UpdateRules.Keys()); err != nil {
		return h.formError(err)
	}
	h.ctrl.OpenBulkUpdate(ids)
	var empty P
	patch, err := h.def.Patch(empty, v)
	if err != nil {
		h.ctrl.CloseBulkUpdate()
		return h.formError(err)
	}
	return h.ctrl.BulkUpdate(ctx, ids, patch)
}

func (h *handle[T, D, P]) Merge(ctx context.Context, ids []int64) table.Result {
	return h.ctrl.Merge(ctx, ids)
}

func (h *handle[T, D, P]) SelectAll() int       { return h.ctrl.SelectAll() }
func (h *handle[T, D, P]) Select(id int64) bool { return h.ctrl.Select(id) }
func (h *handle[T, D, P]) Selected() []int64    { return h.ctrl.Selected() }
func (h *handle[T, D, P]) ClearSelection()      { h.ctrl.ClearSelection() }

func (h *handle[T, D, P]) Bind(ctx context.Context, pc *period.Context) {
	if h.def.Scope == ScopeMonth {
		h.ctrl.Bind(ctx, pc)
	}
}

func (h *handle[T, D, P]) Wait()  { h.ctrl.Wait() }
func (h *handle[T, D, P]) Close() { h.ctrl.Close() }

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', 2, 64)
	case *int64:
		if x == nil {
			return ""
		}
		return strconv.FormatInt(*x, 10)
	case core.Date:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
