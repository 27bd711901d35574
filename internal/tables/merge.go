package tables

import (
	"strings"
	"time"

	"kakebo/internal/core"
)

var now = time.Now

func today() core.Date {
	y, m, d := now().Date()
	return core.NewDate(y, int(m), d)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// apply copies a present patch value into dst.
func apply[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}

type merged struct {
	amount   float64
	item     string
	date     core.Date
	currency string
}

// mergeOf combines rows the way the backend merge endpoint does: amounts
// are summed, non-empty items joined with ", ", the latest date wins and the
// first row's currency is kept.
func mergeOf[T any](rows []T, amount func(T) float64, item func(T) string, date func(T) core.Date, currency func(T) string) merged {
	var (
		m       merged
		amounts = make([]float64, 0, len(rows))
		items   []string
	)
	for i, r := range rows {
		amounts = append(amounts, amount(r))
		if it := strings.TrimSpace(item(r)); it != "" {
			items = append(items, it)
		}
		if date != nil {
			if d := date(r); d.After(m.date.Time) {
				m.date = d
			}
		}
		if i == 0 {
			m.currency = orDefault(currency(r), core.DefaultCurrency)
		}
	}
	m.amount = core.Sum(amounts...)
	m.item = strings.Join(items, ", ")
	return m
}

// timestamp is the created_at format of the backend.
func timestamp() string {
	return now().UTC().Format("2006-01-02 15:04:05")
}
