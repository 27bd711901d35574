package table

import "kakebo/internal/core"

// FieldKind hints how a form field is rendered and parsed.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextArea FieldKind = "textarea"
	KindAmount   FieldKind = "amount"
	KindNumber   FieldKind = "number"
	KindDate     FieldKind = "date"
	KindSelect   FieldKind = "select"
	KindCurrency FieldKind = "currency"
	KindURL      FieldKind = "url"
)

// Field describes one form field. Validate returns an empty string when the
// value held by V is acceptable, or the message to show otherwise. A nil
// Validate accepts everything.
type Field[V any] struct {
	Key      string
	Label    string
	Kind     FieldKind
	Options  []string
	Required bool
	Validate func(V) string
}

// Rules is an ordered form description. Validation reports fields in
// declaration order.
type Rules[V any] []Field[V]

// Check returns the first failing field as a ValidationError, or nil.
func (r Rules[V]) Check(v V) *core.ValidationError {
	for _, f := range r {
		if f.Validate == nil {
			continue
		}
		if msg := f.Validate(v); msg != "" {
			return &core.ValidationError{Field: f.Key, Message: msg}
		}
	}
	return nil
}

// CheckAll returns every failing field keyed by field key.
func (r Rules[V]) CheckAll(v V) map[string]string {
	var out map[string]string
	for _, f := range r {
		if f.Validate == nil {
			continue
		}
		if msg := f.Validate(v); msg != "" {
			if out == nil {
				out = make(map[string]string)
			}
			out[f.Key] = msg
		}
	}
	return out
}

// Field returns the descriptor for key.
func (r Rules[V]) Field(key string) (Field[V], bool) {
	for _, f := range r {
		if f.Key == key {
			return f, true
		}
	}
	return Field[V]{}, false
}

// Keys lists field keys in order.
func (r Rules[V]) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}
