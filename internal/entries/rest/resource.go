package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"kakebo/internal/core"
)

// Resource is one entity collection, e.g. "/income-entries".
type Resource[T core.Entry, D any, P any] struct {
	client   *Client
	path     string
	name     string
	scope    string
	encoding Encoding
}

// ResourceOption configures a Resource.
type ResourceOption func(*resourceOptions)

type resourceOptions struct {
	name     string
	scope    string
	encoding Encoding
}

// Scoped makes GetAll send its key as the given query parameter
// ("month", "savings_account_id", ...).
func Scoped(param string) ResourceOption {
	return func(o *resourceOptions) { o.scope = param }
}

// Named sets the entity name used in not-found errors.
func Named(name string) ResourceOption {
	return func(o *resourceOptions) { o.name = name }
}

// Encoded selects the request body encoding for create and update.
func Encoded(enc Encoding) ResourceOption {
	return func(o *resourceOptions) { o.encoding = enc }
}

func NewResource[T core.Entry, D any, P any](c *Client, path string, opts ...ResourceOption) *Resource[T, D, P] {
	o := resourceOptions{name: "entry"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Resource[T, D, P]{client: c, path: path, name: o.name, scope: o.scope, encoding: o.encoding}
}

func (r *Resource[T, D, P]) item(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

// withID fills the resource name and id into not-found errors.
func (r *Resource[T, D, P]) withID(err error, id int64) error {
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		nf.Resource = r.name
		nf.ID = id
	}
	return err
}

func (r *Resource[T, D, P]) GetAll(ctx context.Context, key string) ([]T, error) {
	var q url.Values
	if r.scope != "" && key != "" {
		q = url.Values{r.scope: {key}}
	}
	var out []T
	if err := r.client.Do(ctx, http.MethodGet, r.path, q, nil, JSON, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.path, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (r *Resource[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var out T
	if err := r.client.Do(ctx, http.MethodPost, r.path, nil, draft, r.encoding, &out); err != nil {
		return out, fmt.Errorf("create %s: %w", r.name, err)
	}
	return out, nil
}

func (r *Resource[T, D, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var out T
	if err := r.client.Do(ctx, http.MethodPut, r.item(id), nil, patch, r.encoding, &out); err != nil {
		return out, fmt.Errorf("update %s %d: %w", r.name, id, r.withID(err, id))
	}
	return out, nil
}

func (r *Resource[T, D, P]) Delete(ctx context.Context, id int64) error {
	if err := r.client.Do(ctx, http.MethodDelete, r.item(id), nil, nil, JSON, nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", r.name, id, r.withID(err, id))
	}
	return nil
}

type bulkIDs struct {
	EntryIDs []int64 `json:"entry_ids"`
}

type bulkUpdate[P any] struct {
	EntryIDs []int64 `json:"entry_ids"`
	Update   P       `json:"update"`
}

type counts struct {
	DeletedCount int `json:"deleted_count"`
	UpdatedCount int `json:"updated_count"`
}

// BulkResource adds the bulk delete, bulk update and merge verbs of the
// month-scoped entry collections.
type BulkResource[T core.Entry, D any, P any] struct {
	*Resource[T, D, P]
}

func NewBulkResource[T core.Entry, D any, P any](c *Client, path string, opts ...ResourceOption) *BulkResource[T, D, P] {
	return &BulkResource[T, D, P]{NewResource[T, D, P](c, path, opts...)}
}

func (r *BulkResource[T, D, P]) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	var out counts
	if err := r.client.Do(ctx, http.MethodDelete, r.path+"/bulk", nil, bulkIDs{ids}, JSON, &out); err != nil {
		return 0, fmt.Errorf("bulk delete %s: %w", r.path, err)
	}
	return out.DeletedCount, nil
}

func (r *BulkResource[T, D, P]) BulkUpdate(ctx context.Context, ids []int64, patch P) (int, error) {
	var out counts
	body := bulkUpdate[P]{EntryIDs: ids, Update: patch}
	if err := r.client.Do(ctx, http.MethodPut, r.path+"/bulk", nil, body, JSON, &out); err != nil {
		return 0, fmt.Errorf("bulk update %s: %w", r.path, err)
	}
	return out.UpdatedCount, nil
}

func (r *BulkResource[T, D, P]) Merge(ctx context.Context, ids []int64) (T, error) {
	var out T
	if err := r.client.Do(ctx, http.MethodPost, r.path+"/merge", nil, bulkIDs{ids}, JSON, &out); err != nil {
		return out, fmt.Errorf("merge %s: %w", r.path, err)
	}
	return out, nil
}

type itemIDs struct {
	ItemIDs []int64 `json:"item_ids"`
}

// PostBulkDeleteResource is a collection whose bulk delete is
// POST /bulk/delete {"item_ids": [...]}.
type PostBulkDeleteResource[T core.Entry, D any, P any] struct {
	*Resource[T, D, P]
}

func NewPostBulkDeleteResource[T core.Entry, D any, P any](c *Client, path string, opts ...ResourceOption) *PostBulkDeleteResource[T, D, P] {
	return &PostBulkDeleteResource[T, D, P]{NewResource[T, D, P](c, path, opts...)}
}

func (r *PostBulkDeleteResource[T, D, P]) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	var out counts
	if err := r.client.Do(ctx, http.MethodPost, r.path+"/bulk/delete", nil, itemIDs{ids}, JSON, &out); err != nil {
		return 0, fmt.Errorf("bulk delete %s: %w", r.path, err)
	}
	return out.DeletedCount, nil
}
