package tables

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"kakebo/internal/core"
	"kakebo/internal/entries/memory"
	"kakebo/internal/entries/rest"
	"kakebo/internal/period"
	"kakebo/internal/table"
)

// Source selects the backend every table talks to. With a Client the REST
// API is used; otherwise each table gets an in-memory store seeded from
// SeedDir/<name>.json when that file exists.
type Source struct {
	Client  *rest.Client
	SeedDir string
}

// Registry holds the opened tables in display order.
type Registry struct {
	tables []Table
}

// Build opens every table over src.
func Build(src Source, deps Deps) (*Registry, error) {
	r := &Registry{}
	steps := []func() error{
		func() error { return add(r, Income(), src, deps) },
		func() error { return add(r, Expenses(), src, deps) },
		func() error { return add(r, FixedExpenses(), src, deps) },
		func() error { return add(r, Debts(), src, deps) },
		func() error { return add(r, SavingsAccounts(), src, deps) },
		func() error { return add(r, Contributions(), src, deps) },
		func() error { return add(r, Projects(), src, deps) },
		func() error { return add(r, WishlistItems(), src, deps) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func add[T core.Entry, D any, P any](r *Registry, def Definition[T, D, P], src Source, deps Deps) error {
	api, err := backendFor(def, src)
	if err != nil {
		return err
	}
	t, err := Open(def, api, deps)
	if err != nil {
		return fmt.Errorf("open %s: %w", def.Name, err)
	}
	r.tables = append(r.tables, t)
	return nil
}

func backendFor[T core.Entry, D any, P any](def Definition[T, D, P], src Source) (table.EntryAPI[T, D, P], error) {
	if src.Client != nil {
		return def.REST(src.Client), nil
	}
	store := memory.New(def.Memory)
	if src.SeedDir != "" {
		if err := store.LoadFile(filepath.Join(src.SeedDir, def.Name+".json")); err != nil {
			return nil, err
		}
	}
	return def.MemoryAPI(store), nil
}

// All returns the tables in display order.
func (r *Registry) All() []Table {
	return append([]Table(nil), r.tables...)
}

// Get finds a table by command line name or table id, ignoring case.
func (r *Registry) Get(name string) (Table, error) {
	for _, t := range r.tables {
		if strings.EqualFold(t.Name(), name) || strings.EqualFold(t.ID(), name) {
			return t, nil
		}
	}
	names := make([]string, len(r.tables))
	for i, t := range r.tables {
		names[i] = t.Name()
	}
	return nil, fmt.Errorf("unknown table %q; expected one of %s", name, strings.Join(names, ", "))
}

// Bind attaches every period-scoped table to pc.
func (r *Registry) Bind(ctx context.Context, pc *period.Context) {
	for _, t := range r.tables {
		t.Bind(ctx, pc)
	}
}

// Wait blocks until background fetches of every table have finished.
func (r *Registry) Wait() {
	for _, t := range r.tables {
		t.Wait()
	}
}

// Close detaches every table.
func (r *Registry) Close() {
	for _, t := range r.tables {
		t.Close()
	}
}
