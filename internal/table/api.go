// Package table implements the generic controller behind every entry table:
// fetching a period, validated create and update, confirmed deletes, bulk
// actions over a selection, and a sorted, filtered view with its total.
package table

import (
	"context"
	"time"

	"kakebo/internal/core"
)

// EntryAPI is the fixed verb set every entity backend implements.
type EntryAPI[T core.Entry, D any, P any] interface {
	GetAll(ctx context.Context, periodKey string) ([]T, error)
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id int64, patch P) (T, error)
	Delete(ctx context.Context, id int64) error
}

// BulkDeleter is implemented by backends that can delete many entries in
// one call. It returns the number of rows the server actually removed.
type BulkDeleter interface {
	BulkDelete(ctx context.Context, ids []int64) (int, error)
}

// BulkUpdater applies one patch to many entries and returns the number of
// rows the server updated.
type BulkUpdater[P any] interface {
	BulkUpdate(ctx context.Context, ids []int64, patch P) (int, error)
}

// Merger combines several entries into one and returns it.
type Merger[T any] interface {
	Merge(ctx context.Context, ids []int64) (T, error)
}

// Notifier surfaces messages to the user. Calls are fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n core.Notification)
}

// Confirmer asks the user a yes/no question before destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// Observer receives one call per finished backend operation.
type Observer interface {
	Observe(tableID, operation string, elapsed time.Duration, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n core.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n core.Notification) { f(ctx, n) }

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, message string) bool

func (f ConfirmerFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }
