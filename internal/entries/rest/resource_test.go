package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"kakebo/internal/core"
	"kakebo/internal/table"
)

type incomeAPI = BulkResource[core.IncomeEntry, core.IncomeDraft, core.IncomePatch]

// fakeBackend mimics the income-entries routes of the HTTP backend.
type fakeBackend struct {
	mu       sync.Mutex
	rows     map[int64]core.IncomeEntry
	nextID   int64
	lastBody map[string]any
	lastForm map[string]string
	query    string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rows: map[int64]core.IncomeEntry{
		1: {ID: 1, Amount: 10, Date: core.NewDate(2025, 1, 2), Item: "a", Currency: "EUR"},
		2: {ID: 2, Amount: 20, Date: core.NewDate(2025, 1, 3), Item: "b", Currency: "EUR"},
	}, nextID: 2}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "msg": msg})
}

func (f *fakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/income-entries", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.query = r.URL.RawQuery
		if r.URL.Query().Get("month") == "2025-13" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "Invalid month format"})
			return
		}
		out := []core.IncomeEntry{}
		for id := int64(1); id <= f.nextID; id++ {
			if e, ok := f.rows[id]; ok {
				out = append(out, e)
			}
		}
		ok(w, out, "ok")
	})
	r.Post("/income-entries", func(w http.ResponseWriter, r *http.Request) {
		var d core.IncomeDraft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
			return
		}
		if d.Amount <= 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"msg":    "Validation error",
				"errors": []map[string]string{{"field": "amount", "message": "Amount must be greater than 0", "type": "value_error"}},
			})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		e := core.IncomeEntry{ID: f.nextID, Amount: d.Amount, Date: d.Date, Item: d.Item, Currency: d.Currency}
		f.rows[e.ID] = e
		writeJSON(w, http.StatusCreated, map[string]any{"data": e, "msg": "created"})
	})
	r.Delete("/income-entries/bulk", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EntryIDs []int64 `json:"entry_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		n := 0
		for _, id := range body.EntryIDs {
			if _, ok := f.rows[id]; ok {
				delete(f.rows, id)
				n++
			}
		}
		ok(w, map[string]int{"deleted_count": n}, "deleted")
	})
	r.Put("/income-entries/bulk", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastBody = body
		f.mu.Unlock()
		ok(w, map[string]int{"updated_count": len(body["entry_ids"].([]any))}, "updated")
	})
	r.Post("/income-entries/merge", func(w http.ResponseWriter, r *http.Request) {
		merged := core.IncomeEntry{ID: 99, Amount: 30, Item: "a, b", Currency: "EUR"}
		ok(w, merged, "merged")
	})
	r.Put("/income-entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastBody = body
		e, found := f.rows[id]
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Income entry with id " + chi.URLParam(r, "id") + " not found"})
			return
		}
		if v, ok := body["amount"].(float64); ok {
			e.Amount = v
		}
		f.rows[id] = e
		ok(w, e, "updated")
	})
	r.Delete("/income-entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, found := f.rows[id]; !found {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
			return
		}
		delete(f.rows, id)
		ok(w, nil, "deleted")
	})
	r.Post("/wishlist-items", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
			return
		}
		f.mu.Lock()
		f.lastForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			f.lastForm[k] = v[0]
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"data": core.WishlistItem{ID: 5, Name: r.FormValue("name")}})
	})
	r.Post("/wishlist-items/bulk/delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ItemIDs []int64 `json:"item_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		ok(w, map[string]int{"deleted_count": len(body.ItemIDs)}, "deleted")
	})
	r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		ok(w, []core.IncomeEntry{}, "late")
	})
	return r
}

func setup(t *testing.T, opts ...Option) (*fakeBackend, *Client) {
	t.Helper()
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.routes())
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return fb, c
}

func income(c *Client) *incomeAPI {
	return NewBulkResource[core.IncomeEntry, core.IncomeDraft, core.IncomePatch](c, "income-entries",
		Scoped("month"), Named("income entry"))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestGetAllSendsScopeAndDecodesEnvelope(t *testing.T) {
	fb, c := setup(t)
	rows, err := income(c).GetAll(context.Background(), "2025-01")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 2 || rows[1].Date.String() != "2025-01-03" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if fb.query != "month=2025-01" {
		t.Fatalf("expected month query, got %q", fb.query)
	}
}

func TestErrorMapping(t *testing.T) {
	_, c := setup(t)
	api := income(c)
	ctx := context.Background()

	_, err := api.GetAll(ctx, "2025-13")
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 400 || apiErr.Detail != "Invalid month format" {
		t.Fatalf("expected 400 APIError, got %v", err)
	}

	_, err = api.Create(ctx, core.IncomeDraft{Amount: 0})
	if !errors.As(err, &apiErr) || apiErr.Status != 422 || apiErr.Detail != "amount: Amount must be greater than 0" {
		t.Fatalf("expected 422 APIError with field errors, got %v", err)
	}

	amount := 5.0
	_, err = api.Update(ctx, 42, core.IncomePatch{Amount: &amount})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 42 || nf.Resource != "income entry" {
		t.Fatalf("expected NotFoundError for id 42, got %v", err)
	}
	if core.Message(err) != "Income entry with id 42 not found" {
		t.Fatalf("unexpected message %q", core.Message(err))
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	fb, c := setup(t)
	api := income(c)
	ctx := context.Background()

	created, err := api.Create(ctx, core.IncomeDraft{Amount: 7.5, Date: core.NewDate(2025, 1, 9), Item: "tip", Currency: "EUR"})
	if err != nil || created.ID != 3 {
		t.Fatalf("unexpected create %+v (err=%v)", created, err)
	}

	amount := 8.0
	updated, err := api.Update(ctx, 3, core.IncomePatch{Amount: &amount})
	if err != nil || updated.Amount != 8 {
		t.Fatalf("unexpected update %+v (err=%v)", updated, err)
	}
	if _, sent := fb.lastBody["item"]; sent {
		t.Fatalf("absent patch fields must not be sent, got %v", fb.lastBody)
	}

	if err := api.Delete(ctx, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf *core.NotFoundError
	if err := api.Delete(ctx, 3); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBulkVerbs(t *testing.T) {
	fb, c := setup(t)
	api := income(c)
	ctx := context.Background()

	n, err := api.BulkDelete(ctx, []int64{1, 77})
	if err != nil || n != 1 {
		t.Fatalf("expected server count 1, got %d (err=%v)", n, err)
	}

	item := "x"
	n, err = api.BulkUpdate(ctx, []int64{2}, core.IncomePatch{Item: &item})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 updated, got %d (err=%v)", n, err)
	}
	update, _ := fb.lastBody["update"].(map[string]any)
	if update["item"] != "x" {
		t.Fatalf("expected nested update payload, got %v", fb.lastBody)
	}

	merged, err := api.Merge(ctx, []int64{1, 2})
	if err != nil || merged.ID != 99 {
		t.Fatalf("unexpected merge %+v (err=%v)", merged, err)
	}

	var generic table.EntryAPI[core.IncomeEntry, core.IncomeDraft, core.IncomePatch] = api
	if _, ok := generic.(table.Merger[core.IncomeEntry]); !ok {
		t.Fatalf("bulk resource must satisfy Merger")
	}
}

func TestMultipartResource(t *testing.T) {
	fb, c := setup(t)
	api := NewPostBulkDeleteResource[core.WishlistItem, core.WishlistItemDraft, core.WishlistItemPatch](c,
		"wishlist-items", Scoped("wishlist_id"), Encoded(Multipart))
	ctx := context.Background()

	item, err := api.Create(ctx, core.WishlistItemDraft{WishlistID: 3, Name: "Lamp", Priority: 1, Currency: "EUR"})
	if err != nil || item.Name != "Lamp" {
		t.Fatalf("unexpected create %+v (err=%v)", item, err)
	}
	if fb.lastForm["wishlist_id"] != "3" || fb.lastForm["priority"] != "1" {
		t.Fatalf("unexpected form %v", fb.lastForm)
	}
	if _, sent := fb.lastForm["amount"]; sent {
		t.Fatalf("nil fields must be omitted from the form")
	}

	n, err := api.BulkDelete(ctx, []int64{1, 2, 3})
	if err != nil || n != 3 {
		t.Fatalf("unexpected bulk delete %d (err=%v)", n, err)
	}
	var generic table.EntryAPI[core.WishlistItem, core.WishlistItemDraft, core.WishlistItemPatch] = api
	if _, ok := generic.(table.BulkUpdater[core.WishlistItemPatch]); ok {
		t.Fatalf("wishlist resource must not offer bulk update")
	}
}

func TestNetworkErrors(t *testing.T) {
	_, c := setup(t, WithTimeout(20*time.Millisecond))
	slow := NewResource[core.IncomeEntry, core.IncomeDraft, core.IncomePatch](c, "slow")
	_, err := slow.GetAll(context.Background(), "")
	if core.Message(err) != "The server took too long to answer" {
		t.Fatalf("expected timeout message, got %v", err)
	}

	dead, err := NewClient("http://127.0.0.1:1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = income(dead).GetAll(context.Background(), "2025-01")
	var nerr *core.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
