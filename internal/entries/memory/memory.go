// Package memory is an in-process entry backend. It serves the demo mode of
// the CLI and stands in for the REST API in tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"kakebo/internal/core"
	"kakebo/internal/table"
)

// Funcs describe how the store builds and changes one entity kind.
type Funcs[T core.Entry, D any, P any] struct {
	// Resource names the entity in not-found errors.
	Resource string
	// Build creates the entry stored for draft under id.
	Build func(id int64, draft D) T
	// Apply returns entry with the fields present in patch overwritten.
	Apply func(entry T, patch P) T
	// Scope returns the key GetAll filters on (a period or a parent id).
	// Nil, or an empty key passed to GetAll, returns every entry.
	Scope func(entry T) string
	// Merge combines rows into one entry stored under id. Nil disables
	// merging.
	Merge func(id int64, rows []T) (T, error)
}

// Store holds entries of one kind.
type Store[T core.Entry, D any, P any] struct {
	fn     Funcs[T, D, P]
	mu     sync.Mutex
	rows   []T
	nextID int64
}

func New[T core.Entry, D any, P any](fn Funcs[T, D, P], seed ...T) *Store[T, D, P] {
	s := &Store[T, D, P]{fn: fn}
	s.Seed(seed...)
	return s
}

// Seed appends rows, keeping their ids.
func (s *Store[T, D, P]) Seed(rows ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows = append(s.rows, r)
		s.nextID = max(s.nextID, r.EntryID())
	}
}

// LoadFile seeds the store from a JSON array. A missing file is not an error.
func (s *Store[T, D, P]) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var rows []T
	if err := json.Unmarshal(b, &rows); err != nil {
		return fmt.Errorf("decode seed file %s: %w", path, err)
	}
	s.Seed(rows...)
	return nil
}

func (s *Store[T, D, P]) index(id int64) int {
	return slices.IndexFunc(s.rows, func(r T) bool { return r.EntryID() == id })
}

func (s *Store[T, D, P]) notFound(id int64) error {
	return &core.NotFoundError{Resource: s.fn.Resource, ID: id}
}

func (s *Store[T, D, P]) GetAll(ctx context.Context, key string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.rows))
	for _, r := range s.rows {
		if key == "" || s.fn.Scope == nil || s.fn.Scope(r) == key {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e := s.fn.Build(s.nextID, draft)
	s.rows = append(s.rows, e)
	return e, nil
}

func (s *Store[T, D, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return zero, s.notFound(id)
	}
	s.rows[i] = s.fn.Apply(s.rows[i], patch)
	return s.rows[i], nil
}

func (s *Store[T, D, P]) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return s.notFound(id)
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return nil
}

// BulkDelete removes the ids that exist and reports how many were removed.
func (s *Store[T, D, P]) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.rows)
	s.rows = slices.DeleteFunc(s.rows, func(r T) bool { return slices.Contains(ids, r.EntryID()) })
	return before - len(s.rows), nil
}

// BulkUpdate patches the ids that exist and reports how many were updated.
func (s *Store[T, D, P]) BulkUpdate(ctx context.Context, ids []int64, patch P) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i, r := range s.rows {
		if slices.Contains(ids, r.EntryID()) {
			s.rows[i] = s.fn.Apply(r, patch)
			n++
		}
	}
	return n, nil
}

// Merge replaces ids with the single entry produced by Funcs.Merge.
func (s *Store[T, D, P]) Merge(ctx context.Context, ids []int64) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if s.fn.Merge == nil {
		return zero, &core.CapabilityMissingError{Capability: "merge"}
	}
	if len(ids) < 2 {
		return zero, &core.APIError{Status: 400, Detail: "at least two entries are required to merge"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]T, 0, len(ids))
	for _, id := range ids {
		i := s.index(id)
		if i < 0 {
			return zero, s.notFound(id)
		}
		rows = append(rows, s.rows[i])
	}
	merged, err := s.fn.Merge(s.nextID+1, rows)
	if err != nil {
		return zero, err
	}
	s.nextID++
	s.rows = slices.DeleteFunc(s.rows, func(r T) bool { return slices.Contains(ids, r.EntryID()) })
	s.rows = append(s.rows, merged)
	return merged, nil
}

// Len returns the number of stored entries.
func (s *Store[T, D, P]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Basic exposes only the four required verbs, hiding bulk and merge.
func Basic[T core.Entry, D any, P any](s *Store[T, D, P]) table.EntryAPI[T, D, P] {
	return basic[T, D, P]{s}
}

type basic[T core.Entry, D any, P any] struct {
	s *Store[T, D, P]
}

func (b basic[T, D, P]) GetAll(ctx context.Context, key string) ([]T, error) {
	return b.s.GetAll(ctx, key)
}

func (b basic[T, D, P]) Create(ctx context.Context, d D) (T, error) { return b.s.Create(ctx, d) }

func (b basic[T, D, P]) Update(ctx context.Context, id int64, p P) (T, error) {
	return b.s.Update(ctx, id, p)
}

func (b basic[T, D, P]) Delete(ctx context.Context, id int64) error { return b.s.Delete(ctx, id) }

// WithoutMerge exposes the required verbs plus bulk delete and update.
func WithoutMerge[T core.Entry, D any, P any](s *Store[T, D, P]) table.EntryAPI[T, D, P] {
	return bulkOnly[T, D, P]{basic[T, D, P]{s}}
}

type bulkOnly[T core.Entry, D any, P any] struct {
	basic[T, D, P]
}

func (b bulkOnly[T, D, P]) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	return b.s.BulkDelete(ctx, ids)
}

func (b bulkOnly[T, D, P]) BulkUpdate(ctx context.Context, ids []int64, p P) (int, error) {
	return b.s.BulkUpdate(ctx, ids, p)
}

// DeleteOnly exposes the required verbs plus bulk delete.
func DeleteOnly[T core.Entry, D any, P any](s *Store[T, D, P]) table.EntryAPI[T, D, P] {
	return deleteOnly[T, D, P]{basic[T, D, P]{s}}
}

type deleteOnly[T core.Entry, D any, P any] struct {
	basic[T, D, P]
}

func (b deleteOnly[T, D, P]) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	return b.s.BulkDelete(ctx, ids)
}
