package table

import (
	"context"
	"sync"

	"kakebo/internal/core"
	"kakebo/internal/sorting"
)

type entry struct {
	ID     int64
	Amount float64
	Item   string
}

func (e entry) EntryID() int64       { return e.ID }
func (e entry) EntryAmount() float64 { return e.Amount }

type draft struct {
	Amount   float64
	Item     string
	Currency string
}

type patch struct {
	Amount *float64
	Item   *string
}

// fakeAPI is a minimal EntryAPI without optional verbs.
type fakeAPI struct {
	mu        sync.Mutex
	rows      []entry
	nextID    int64
	getAll    int
	creates   []draft
	updates   map[int64]patch
	deletes   []int64
	getErr    error
	createErr error
	updateErr error
	deleteErr error
	// block, when set, is waited on by GetAll for the given key
	block map[string]chan struct{}
}

func newFakeAPI(rows ...entry) *fakeAPI {
	return &fakeAPI{rows: rows, nextID: 100, updates: make(map[int64]patch)}
}

func (f *fakeAPI) GetAll(ctx context.Context, key string) ([]entry, error) {
	f.mu.Lock()
	f.getAll++
	ch := f.block[key]
	f.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]entry, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeAPI) Create(_ context.Context, d draft) (entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, d)
	if f.createErr != nil {
		return entry{}, f.createErr
	}
	f.nextID++
	e := entry{ID: f.nextID, Amount: d.Amount, Item: d.Item}
	f.rows = append(f.rows, e)
	return e, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, p patch) (entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = p
	if f.updateErr != nil {
		return entry{}, f.updateErr
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			if p.Amount != nil {
				f.rows[i].Amount = *p.Amount
			}
			if p.Item != nil {
				f.rows[i].Item = *p.Item
			}
			return f.rows[i], nil
		}
	}
	return entry{}, &core.NotFoundError{Resource: "entry", ID: id}
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.remove(id)
	return nil
}

func (f *fakeAPI) remove(id int64) bool {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true
		}
	}
	return false
}

func (f *fakeAPI) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getAll
}

// bulkAPI adds the optional bulk and merge verbs.
type bulkAPI struct {
	*fakeAPI
	bulkDeletes [][]int64
	bulkErr     error
	merged      [][]int64
}

func (b *bulkAPI) BulkDelete(_ context.Context, ids []int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bulkDeletes = append(b.bulkDeletes, ids)
	if b.bulkErr != nil {
		return 0, b.bulkErr
	}
	n := 0
	for _, id := range ids {
		if b.remove(id) {
			n++
		}
	}
	return n, nil
}

func (b *bulkAPI) BulkUpdate(_ context.Context, ids []int64, p patch) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bulkErr != nil {
		return 0, b.bulkErr
	}
	n := 0
	for i := range b.rows {
		for _, id := range ids {
			if b.rows[i].ID == id {
				if p.Item != nil {
					b.rows[i].Item = *p.Item
				}
				n++
			}
		}
	}
	return n, nil
}

func (b *bulkAPI) Merge(_ context.Context, ids []int64) (entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.merged = append(b.merged, ids)
	if b.bulkErr != nil {
		return entry{}, b.bulkErr
	}
	var total float64
	for _, id := range ids {
		for _, r := range b.rows {
			if r.ID == id {
				total += r.Amount
			}
		}
		b.remove(id)
	}
	b.nextID++
	e := entry{ID: b.nextID, Amount: total, Item: "merged"}
	b.rows = append(b.rows, e)
	return e, nil
}

type recorder struct {
	mu    sync.Mutex
	notes []core.Notification
}

func (r *recorder) Notify(_ context.Context, n core.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) last() core.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return core.Notification{}
	}
	return r.notes[len(r.notes)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

type confirmer struct {
	answer bool
	asked  []string
}

func (c *confirmer) Confirm(_ context.Context, msg string) bool {
	c.asked = append(c.asked, msg)
	return c.answer
}

var errServer = &core.APIError{Status: 500, Detail: "database is locked"}

func amountRules() Rules[draft] {
	return Rules[draft]{
		{Key: "amount", Label: "Amount", Kind: KindAmount, Validate: func(d draft) string {
			if d.Amount <= 0 {
				return "Amount must be greater than 0"
			}
			return ""
		}},
		{Key: "item", Label: "Item", Kind: KindText, Validate: func(d draft) string {
			if d.Item == "" {
				return "Item is required"
			}
			return ""
		}},
	}
}

func patchRules() Rules[patch] {
	return Rules[patch]{
		{Key: "amount", Kind: KindAmount, Validate: func(p patch) string {
			if p.Amount != nil && *p.Amount <= 0 {
				return "Amount must be greater than 0"
			}
			return ""
		}},
	}
}

type harness struct {
	api     *fakeAPI
	notes   *recorder
	confirm *confirmer
	ctrl    *Controller[entry, draft, patch]
}

func newHarness(api EntryAPI[entry, draft, patch], base *fakeAPI) *harness {
	h := &harness{api: base, notes: &recorder{}, confirm: &confirmer{answer: true}}
	ctrl, err := New(Config[entry, draft, patch]{
		TableID:     "incomeTable",
		Labels:      Labels{Singular: "income entry", Plural: "income entries"},
		API:         api,
		CreateRules: amountRules(),
		UpdateRules: patchRules(),
		PrepareCreate: func(d draft) draft {
			if d.Currency == "" {
				d.Currency = core.DefaultCurrency
			}
			return d
		},
		Columns: []sorting.Column[entry]{
			{Key: "amount", Value: func(e entry) any { return e.Amount }},
			{Key: "item", Value: func(e entry) any { return e.Item }},
		},
		Notifier:  h.notes,
		Confirmer: h.confirm,
	})
	if err != nil {
		panic(err)
	}
	h.ctrl = ctrl
	return h
}

func plainHarness(rows ...entry) *harness {
	api := newFakeAPI(rows...)
	return newHarness(api, api)
}

func bulkHarness(rows ...entry) (*harness, *bulkAPI) {
	api := &bulkAPI{fakeAPI: newFakeAPI(rows...)}
	return newHarness(api, api.fakeAPI), api
}

func entryIDs(rows []entry) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
