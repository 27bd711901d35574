package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"kakebo/internal/core"
	applog "kakebo/internal/log"
	"kakebo/internal/period"
	"kakebo/internal/prefs"
	"kakebo/internal/sorting"
)

// Labels name the entity in user-facing messages.
type Labels struct {
	Singular string // "income entry"
	Plural   string // "income entries"
}

// Config wires a Controller.
type Config[T core.Entry, D any, P any] struct {
	TableID string
	Labels  Labels
	API     EntryAPI[T, D, P]

	CreateRules Rules[D]
	UpdateRules Rules[P]

	// NewDraft seeds the create form.
	NewDraft func() D
	// EditValues seeds the edit form from an existing entry.
	EditValues func(T) P
	// PrepareCreate fills defaults into a submitted draft.
	PrepareCreate func(D) D
	// PrepareUpdate merges a submitted patch over the original entry.
	PrepareUpdate func(T, P) P

	Columns  []sorting.Column[T]
	Prefs    prefs.Store
	Language language.Tag

	Notifier  Notifier
	Confirmer Confirmer
	Observer  Observer
	Logger    *applog.Logger
}

// Result is the outcome of a controller operation. Failures are reported
// here and through the Notifier; operations never return errors.
type Result struct {
	OK      bool
	Message string
	// Count is the server-reported number of affected rows for bulk actions.
	Count int
	// ID is the entry created, updated or produced by a merge.
	ID int64
	// Stale is set on fetches whose response was discarded because a newer
	// fetch had started.
	Stale bool
}

// Controller owns the in-memory collection of one table.
type Controller[T core.Entry, D any, P any] struct {
	cfg    Config[T, D, P]
	api    EntryAPI[T, D, P]
	sorter *sorting.Engine[T]
	logger *applog.Logger
	group  singleflight.Group

	mu         sync.Mutex
	entries    []T
	periodKey  string
	generation uint64
	loading    int
	err        error
	filter     func(T) bool
	selection  *Selection
	create     Modal[D]
	edit       Modal[P]
	editTarget T
	bulk       Modal[P]

	bindMu      sync.Mutex
	unsubscribe func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New validates cfg and returns a controller with its sort state restored
// from the preference store.
func New[T core.Entry, D any, P any](cfg Config[T, D, P]) (*Controller[T, D, P], error) {
	if strings.TrimSpace(cfg.TableID) == "" {
		return nil, errors.New("table id is required")
	}
	if cfg.API == nil {
		return nil, fmt.Errorf("table %s: entry API is required", cfg.TableID)
	}
	if cfg.Confirmer == nil {
		return nil, fmt.Errorf("table %s: confirmer is required", cfg.TableID)
	}
	if cfg.Labels.Singular == "" {
		cfg.Labels.Singular = "entry"
	}
	if cfg.Labels.Plural == "" {
		cfg.Labels.Plural = cfg.Labels.Singular + "s"
	}
	if cfg.NewDraft == nil {
		cfg.NewDraft = func() D { var d D; return d }
	}
	if cfg.EditValues == nil {
		cfg.EditValues = func(T) P { var p P; return p }
	}
	if cfg.PrepareCreate == nil {
		cfg.PrepareCreate = func(d D) D { return d }
	}
	if cfg.PrepareUpdate == nil {
		cfg.PrepareUpdate = func(_ T, p P) P { return p }
	}

	logger := applog.OrDiscard(cfg.Logger)
	return &Controller[T, D, P]{
		cfg:       cfg,
		api:       cfg.API,
		sorter:    sorting.New(cfg.TableID, cfg.Prefs, cfg.Columns, sorting.WithLanguage(cfg.Language), sorting.WithLogger(logger)),
		logger:    logger.WithTable(applog.ComponentTable, cfg.TableID),
		selection: NewSelection(),
	}, nil
}

// TableID returns the stable table identifier.
func (c *Controller[T, D, P]) TableID() string { return c.cfg.TableID }

// Labels returns the entity names used in messages.
func (c *Controller[T, D, P]) Labels() Labels { return c.cfg.Labels }

// CreateRules returns the create form description.
func (c *Controller[T, D, P]) CreateRules() Rules[D] { return c.cfg.CreateRules }

// UpdateRules returns the edit and bulk-update form description.
func (c *Controller[T, D, P]) UpdateRules() Rules[P] { return c.cfg.UpdateRules }

// Sorter exposes the sort engine.
func (c *Controller[T, D, P]) Sorter() *sorting.Engine[T] { return c.sorter }

func (c *Controller[T, D, P]) begin() func() {
	c.mu.Lock()
	c.loading++
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.loading--
		c.mu.Unlock()
	}
}

func (c *Controller[T, D, P]) observe(op string, start time.Time, err error) {
	if c.cfg.Observer != nil {
		c.cfg.Observer.Observe(c.cfg.TableID, op, time.Since(start), err)
	}
}

func (c *Controller[T, D, P]) notify(ctx context.Context, sev core.Severity, title, msg string) {
	c.logger.DebugContext(ctx, "Notification", applog.FieldSeverity, sev, "title", title, "message", msg)
	if c.cfg.Notifier == nil {
		return
	}
	c.cfg.Notifier.Notify(ctx, core.Notification{
		Title:    title,
		Message:  msg,
		Severity: sev,
		Table:    c.cfg.TableID,
	})
}

// failure logs err, notifies the user and builds the failed Result.
func (c *Controller[T, D, P]) failure(ctx context.Context, op, title string, err error) Result {
	msg := core.Message(err)
	fields := applog.NewFields().WithOperation(op).WithError(err).WithErrorType(core.Kind(err))
	if key := c.PeriodKey(); key != "" {
		fields.WithPeriod(key)
	}
	c.logger.ErrorContext(ctx, "Table operation failed", fields.ToSlice()...)
	c.notify(ctx, core.SeverityError, title, msg)
	return Result{Message: msg}
}

func (c *Controller[T, D, P]) confirm(ctx context.Context, op, message string) bool {
	if c.cfg.Confirmer.Confirm(ctx, message) {
		return true
	}
	c.logger.DebugContext(ctx, "Action cancelled by user", applog.FieldOperation, op)
	return false
}

func cancelled() Result {
	return Result{Message: core.ErrCancelled.Error()}
}

// Fetch loads the entries of periodKey and replaces the collection. On
// failure the previous collection stays in place. Concurrent fetches of the
// same key share one request, and a response is discarded when a newer
// fetch started after it.
func (c *Controller[T, D, P]) Fetch(ctx context.Context, periodKey string) Result {
	done := c.begin()
	defer done()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.periodKey = periodKey
	c.mu.Unlock()

	start := time.Now()
	// The shared request runs detached from every caller; each caller only
	// stops waiting when its own context ends.
	ch := c.group.DoChan(periodKey, func() (any, error) {
		return c.api.GetAll(context.WithoutCancel(ctx), periodKey)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	err := res.Err
	c.observe(applog.OpFetch, start, err)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "Discarding superseded fetch", applog.FieldPeriod, periodKey)
		return Result{OK: err == nil, Stale: true}
	}
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "Fetch cancelled", applog.FieldPeriod, periodKey)
		return Result{Message: core.Message(err)}
	}
	if err != nil {
		c.err = err
		c.mu.Unlock()
		return c.failure(ctx, applog.OpFetch, fmt.Sprintf("Could not load %s", c.cfg.Labels.Plural), err)
	}
	entries := res.Val.([]T)
	if res.Shared {
		entries = slices.Clone(entries)
	}
	c.entries = entries
	c.err = nil
	c.selection.Clear()
	n := len(entries)
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Entries loaded", applog.FieldPeriod, periodKey, applog.FieldCount, n)
	return Result{OK: true, Count: n}
}

// Refresh refetches the current period, never joining a request that was
// already in flight before the caller's write.
func (c *Controller[T, D, P]) Refresh(ctx context.Context) Result {
	c.mu.Lock()
	key := c.periodKey
	c.mu.Unlock()
	c.group.Forget(key)
	return c.Fetch(ctx, key)
}

// PeriodKey returns the key of the last requested fetch.
func (c *Controller[T, D, P]) PeriodKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.periodKey
}

// OpenCreate opens the create form seeded with a fresh draft.
func (c *Controller[T, D, P]) OpenCreate() D {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.create.open(c.cfg.NewDraft())
	return c.create.Values
}

// CreateModal returns the create form state.
func (c *Controller[T, D, P]) CreateModal() Modal[D] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.create
}

// CloseCreate discards the create form.
func (c *Controller[T, D, P]) CloseCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.create.close()
}

func (c *Controller[T, D, P]) invalid(ctx context.Context, verr *core.ValidationError) Result {
	c.logger.DebugContext(ctx, "Validation failed", applog.FieldOperation, applog.OpValidate, "field", verr.Field)
	c.notify(ctx, core.SeverityWarning, "Check the form", verr.Message)
	return Result{Message: verr.Message}
}

// Create validates draft and submits it. Invalid drafts never reach the
// API; the form stays open with the entered values on any failure.
func (c *Controller[T, D, P]) Create(ctx context.Context, draft D) Result {
	c.mu.Lock()
	if c.create.State == ModalSubmitting {
		c.mu.Unlock()
		return Result{Message: "A submission is already in progress"}
	}
	if verr := c.cfg.CreateRules.Check(draft); verr != nil {
		c.create.fail(draft, verr.Message, c.cfg.CreateRules.CheckAll(draft))
		c.mu.Unlock()
		return c.invalid(ctx, verr)
	}
	c.create.State = ModalSubmitting
	c.create.Values = draft
	c.mu.Unlock()

	done := c.begin()
	defer done()

	start := time.Now()
	created, err := c.api.Create(ctx, c.cfg.PrepareCreate(draft))
	c.observe(applog.OpCreate, start, err)
	if err != nil {
		c.mu.Lock()
		c.create.fail(draft, core.Message(err), nil)
		c.mu.Unlock()
		return c.failure(ctx, applog.OpCreate, fmt.Sprintf("Could not create %s", c.cfg.Labels.Singular), err)
	}

	c.Refresh(ctx)
	c.mu.Lock()
	c.create.close()
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Entry created", applog.FieldEntryID, created.EntryID())
	msg := fmt.Sprintf("%s created", capitalize(c.cfg.Labels.Singular))
	c.notify(ctx, core.SeveritySuccess, "Saved", msg)
	return Result{OK: true, Message: msg, ID: created.EntryID(), Count: 1}
}

// OpenEdit opens the edit form for entry, seeded from it.
func (c *Controller[T, D, P]) OpenEdit(entry T) P {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edit.open(c.cfg.EditValues(entry))
	c.edit.TargetID = entry.EntryID()
	c.editTarget = entry
	return c.edit.Values
}

// EditModal returns the edit form state.
func (c *Controller[T, D, P]) EditModal() Modal[P] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edit
}

// CloseEdit discards the edit form.
func (c *Controller[T, D, P]) CloseEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edit.close()
	var zero T
	c.editTarget = zero
}

// Update submits patch for the entry opened with OpenEdit. The patch is
// merged over the original entry before it is sent.
func (c *Controller[T, D, P]) Update(ctx context.Context, patch P) Result {
	c.mu.Lock()
	switch c.edit.State {
	case ModalClosed:
		c.mu.Unlock()
		return Result{Message: fmt.Sprintf("No %s is being edited", c.cfg.Labels.Singular)}
	case ModalSubmitting:
		c.mu.Unlock()
		return Result{Message: "A submission is already in progress"}
	}
	if verr := c.cfg.UpdateRules.Check(patch); verr != nil {
		c.edit.fail(patch, verr.Message, c.cfg.UpdateRules.CheckAll(patch))
		c.mu.Unlock()
		return c.invalid(ctx, verr)
	}
	original := c.editTarget
	c.edit.State = ModalSubmitting
	c.edit.Values = patch
	c.mu.Unlock()

	done := c.begin()
	defer done()

	id := original.EntryID()
	start := time.Now()
	_, err := c.api.Update(ctx, id, c.cfg.PrepareUpdate(original, patch))
	c.observe(applog.OpUpdate, start, err)
	if err != nil {
		c.mu.Lock()
		c.edit.fail(patch, core.Message(err), nil)
		c.mu.Unlock()
		return c.failure(ctx, applog.OpUpdate, fmt.Sprintf("Could not update %s", c.cfg.Labels.Singular), err)
	}

	c.Refresh(ctx)
	c.CloseEdit()

	c.logger.InfoContext(ctx, "Entry updated", applog.FieldEntryID, id)
	msg := fmt.Sprintf("%s updated", capitalize(c.cfg.Labels.Singular))
	c.notify(ctx, core.SeveritySuccess, "Saved", msg)
	return Result{OK: true, Message: msg, ID: id, Count: 1}
}

// Delete removes one entry after confirmation.
func (c *Controller[T, D, P]) Delete(ctx context.Context, id int64) Result {
	if !c.confirm(ctx, applog.OpDelete, fmt.Sprintf("Delete this %s?", c.cfg.Labels.Singular)) {
		return cancelled()
	}

	done := c.begin()
	defer done()

	start := time.Now()
	err := c.api.Delete(ctx, id)
	c.observe(applog.OpDelete, start, err)
	if err != nil {
		return c.failure(ctx, applog.OpDelete, fmt.Sprintf("Could not delete %s", c.cfg.Labels.Singular), err)
	}

	c.Refresh(ctx)
	c.logger.InfoContext(ctx, "Entry deleted", applog.FieldEntryID, id)
	msg := fmt.Sprintf("%s deleted", capitalize(c.cfg.Labels.Singular))
	c.notify(ctx, core.SeveritySuccess, "Deleted", msg)
	return Result{OK: true, Message: msg, ID: id, Count: 1}
}

func (c *Controller[T, D, P]) nothingSelected(ctx context.Context, min int) Result {
	msg := fmt.Sprintf("Select at least one %s first", c.cfg.Labels.Singular)
	if min > 1 {
		msg = fmt.Sprintf("Select at least %d %s first", min, c.cfg.Labels.Plural)
	}
	c.notify(ctx, core.SeverityWarning, "Nothing selected", msg)
	return Result{Message: core.ErrNothingSelected.Error()}
}

func (c *Controller[T, D, P]) missing(ctx context.Context, op, capability string) Result {
	return c.failure(ctx, op, "Not available", &core.CapabilityMissingError{Capability: capability})
}

// afterBulk clears the selection and refetches once.
func (c *Controller[T, D, P]) afterBulk(ctx context.Context) {
	c.mu.Lock()
	c.selection.Clear()
	c.mu.Unlock()
	c.Refresh(ctx)
}

// BulkDelete removes ids after confirmation and reports the number of rows
// the server deleted. An empty ids asks nothing and calls nothing.
func (c *Controller[T, D, P]) BulkDelete(ctx context.Context, ids []int64) Result {
	if len(ids) == 0 {
		return c.nothingSelected(ctx, 1)
	}
	deleter, ok := c.api.(BulkDeleter)
	if !ok {
		return c.missing(ctx, applog.OpBulkDelete, "bulk delete")
	}
	if !c.confirm(ctx, applog.OpBulkDelete, fmt.Sprintf("Delete %d %s?", len(ids), c.plural(len(ids)))) {
		return cancelled()
	}

	done := c.begin()
	defer done()

	start := time.Now()
	count, err := deleter.BulkDelete(ctx, ids)
	c.observe(applog.OpBulkDelete, start, err)
	if err != nil {
		return c.failure(ctx, applog.OpBulkDelete, fmt.Sprintf("Could not delete %s", c.cfg.Labels.Plural), err)
	}

	c.afterBulk(ctx)
	c.logger.InfoContext(ctx, "Entries deleted", applog.NewFields().WithEntries(ids).WithOperation(applog.OpBulkDelete).ToSlice()...)
	msg := fmt.Sprintf("Deleted %d %s", count, c.plural(count))
	c.notify(ctx, core.SeveritySuccess, "Deleted", msg)
	return Result{OK: true, Message: msg, Count: count}
}

// OpenBulkUpdate opens the bulk-update form for ids with an empty patch.
func (c *Controller[T, D, P]) OpenBulkUpdate(ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero P
	c.bulk.open(zero)
	c.bulk.IDs = slices.Clone(ids)
}

// BulkUpdateModal returns the bulk-update form state.
func (c *Controller[T, D, P]) BulkUpdateModal() Modal[P] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bulk
}

// CloseBulkUpdate discards the bulk-update form.
func (c *Controller[T, D, P]) CloseBulkUpdate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bulk.close()
}

// BulkUpdate applies patch to ids and reports the number of rows the server
// updated. Update rules must accept absent fields, since a bulk patch only
// carries the fields being changed.
func (c *Controller[T, D, P]) BulkUpdate(ctx context.Context, ids []int64, patch P) Result {
	if len(ids) == 0 {
		return c.nothingSelected(ctx, 1)
	}
	updater, ok := c.api.(BulkUpdater[P])
	if !ok {
		return c.missing(ctx, applog.OpBulkUpdate, "bulk update")
	}

	c.mu.Lock()
	if c.bulk.State == ModalSubmitting {
		c.mu.Unlock()
		return Result{Message: "A submission is already in progress"}
	}
	if verr := c.cfg.UpdateRules.Check(patch); verr != nil {
		c.bulk.fail(patch, verr.Message, c.cfg.UpdateRules.CheckAll(patch))
		c.bulk.IDs = slices.Clone(ids)
		c.mu.Unlock()
		return c.invalid(ctx, verr)
	}
	c.bulk.State = ModalSubmitting
	c.bulk.Values = patch
	c.bulk.IDs = slices.Clone(ids)
	c.mu.Unlock()

	if !c.confirm(ctx, applog.OpBulkUpdate, fmt.Sprintf("Update %d %s?", len(ids), c.plural(len(ids)))) {
		c.mu.Lock()
		c.bulk.State = ModalOpened
		c.mu.Unlock()
		return cancelled()
	}

	done := c.begin()
	defer done()

	start := time.Now()
	count, err := updater.BulkUpdate(ctx, ids, patch)
	c.observe(applog.OpBulkUpdate, start, err)
	if err != nil {
		c.mu.Lock()
		c.bulk.fail(patch, core.Message(err), nil)
		c.mu.Unlock()
		return c.failure(ctx, applog.OpBulkUpdate, fmt.Sprintf("Could not update %s", c.cfg.Labels.Plural), err)
	}

	c.afterBulk(ctx)
	c.CloseBulkUpdate()
	c.logger.InfoContext(ctx, "Entries updated", applog.NewFields().WithEntries(ids).WithOperation(applog.OpBulkUpdate).ToSlice()...)
	msg := fmt.Sprintf("Updated %d %s", count, c.plural(count))
	c.notify(ctx, core.SeveritySuccess, "Saved", msg)
	return Result{OK: true, Message: msg, Count: count}
}

// Merge combines at least two entries into one after confirmation.
func (c *Controller[T, D, P]) Merge(ctx context.Context, ids []int64) Result {
	if len(ids) < 2 {
		return c.nothingSelected(ctx, 2)
	}
	merger, ok := c.api.(Merger[T])
	if !ok {
		return c.missing(ctx, applog.OpMerge, "merge")
	}
	if !c.confirm(ctx, applog.OpMerge, fmt.Sprintf("Merge %d %s into one?", len(ids), c.cfg.Labels.Plural)) {
		return cancelled()
	}

	done := c.begin()
	defer done()

	start := time.Now()
	merged, err := merger.Merge(ctx, ids)
	c.observe(applog.OpMerge, start, err)
	if err != nil {
		return c.failure(ctx, applog.OpMerge, fmt.Sprintf("Could not merge %s", c.cfg.Labels.Plural), err)
	}

	c.afterBulk(ctx)
	c.logger.InfoContext(ctx, "Entries merged", applog.FieldEntryID, merged.EntryID(), applog.FieldEntryIDs, ids)
	msg := fmt.Sprintf("Merged %d %s", len(ids), c.cfg.Labels.Plural)
	c.notify(ctx, core.SeveritySuccess, "Merged", msg)
	return Result{OK: true, Message: msg, ID: merged.EntryID(), Count: len(ids)}
}

func (c *Controller[T, D, P]) plural(n int) string {
	if n == 1 {
		return c.cfg.Labels.Singular
	}
	return c.cfg.Labels.Plural
}

func (c *Controller[T, D, P]) loaded(id int64) bool {
	for _, e := range c.entries {
		if e.EntryID() == id {
			return true
		}
	}
	return false
}

// Toggle flips the selection of a loaded entry and reports whether it is
// selected afterwards. Unknown ids are ignored.
func (c *Controller[T, D, P]) Toggle(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded(id) {
		return false
	}
	return c.selection.Toggle(id)
}

// Select marks a loaded entry. It reports false for ids not loaded.
func (c *Controller[T, D, P]) Select(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded(id) {
		return false
	}
	c.selection.Add(id)
	return true
}

// Deselect unmarks id.
func (c *Controller[T, D, P]) Deselect(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Remove(id)
}

// SelectAll marks every entry of the displayed view.
func (c *Controller[T, D, P]) SelectAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.filtered() {
		c.selection.Add(e.EntryID())
	}
	return c.selection.Len()
}

// ClearSelection unmarks everything.
func (c *Controller[T, D, P]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
}

// Selected returns the marked ids in ascending order.
func (c *Controller[T, D, P]) Selected() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.IDs()
}

// IsSelected reports whether id is marked.
func (c *Controller[T, D, P]) IsSelected(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Has(id)
}

// SetFilter restricts the displayed view. A nil filter shows everything.
// Selected entries hidden by the filter stay selected.
func (c *Controller[T, D, P]) SetFilter(keep func(T) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = keep
}

func (c *Controller[T, D, P]) filtered() []T {
	if c.filter == nil {
		return c.entries
	}
	out := make([]T, 0, len(c.entries))
	for _, e := range c.entries {
		if c.filter(e) {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns a copy of the loaded collection in server order.
func (c *Controller[T, D, P]) Entries() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.entries)
}

// Find returns the loaded entry with id.
func (c *Controller[T, D, P]) Find(id int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.EntryID() == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// View returns the displayed rows: filtered, then sorted.
func (c *Controller[T, D, P]) View() []T {
	c.mu.Lock()
	rows := slices.Clone(c.filtered())
	c.mu.Unlock()
	return c.sorter.View(rows)
}

// TotalShown sums the amounts of the displayed rows, or returns override
// when the caller already has an authoritative total.
func (c *Controller[T, D, P]) TotalShown(override *float64) float64 {
	if override != nil {
		return *override
	}
	total := decimal.Zero
	for _, e := range c.View() {
		total = total.Add(decimal.NewFromFloat(e.EntryAmount()))
	}
	return total.InexactFloat64()
}

// RequestSort forwards a column click to the sort engine.
func (c *Controller[T, D, P]) RequestSort(column string) sorting.State {
	return c.sorter.RequestSort(column)
}

// SortState returns the active sort.
func (c *Controller[T, D, P]) SortState() sorting.State {
	return c.sorter.State()
}

// Loading reports whether any operation is in flight.
func (c *Controller[T, D, P]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// Err returns the error of the last failed fetch, cleared by the next
// successful one.
func (c *Controller[T, D, P]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Bind fetches the current period of pc in the background and refetches on
// every period change until Close. Binding again replaces the previous
// subscription.
func (c *Controller[T, D, P]) Bind(ctx context.Context, pc *period.Context) {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()
	c.unbind()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.spawn(ctx, pc.Current().Key())
	c.unsubscribe = pc.Subscribe(func(p period.Period) {
		c.spawn(ctx, p.Key())
	})
}

func (c *Controller[T, D, P]) spawn(ctx context.Context, key string) {
	if ctx.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Fetch(ctx, key)
	}()
}

func (c *Controller[T, D, P]) unbind() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Wait blocks until background fetches started by Bind have finished.
func (c *Controller[T, D, P]) Wait() {
	c.wg.Wait()
}

// Close stops reacting to period changes and waits for background fetches.
func (c *Controller[T, D, P]) Close() {
	c.bindMu.Lock()
	c.unbind()
	c.bindMu.Unlock()
	c.wg.Wait()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
