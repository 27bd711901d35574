package sorting

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"

	"kakebo/internal/core"
)

type kind int

const (
	kindNil kind = iota
	kindNumber
	kindText
	kindTime
	kindOther
)

// normalized is a sort value reduced to one comparable representation.
type normalized struct {
	kind kind
	num  decimal.Decimal
	text string
	at   time.Time
	raw  any
}

func normalize(v any) normalized {
	if v == nil {
		return normalized{kind: kindNil}
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return normalized{kind: kindNil}
		}
		rv = rv.Elem()
	}
	v = rv.Interface()

	switch x := v.(type) {
	case decimal.Decimal:
		return normalized{kind: kindNumber, num: x}
	case time.Time:
		if x.IsZero() {
			return normalized{kind: kindNil}
		}
		return normalized{kind: kindTime, at: x}
	case core.Date:
		if x.IsZero() {
			return normalized{kind: kindNil}
		}
		return normalized{kind: kindTime, at: x.Time}
	case string:
		return normalized{kind: kindText, text: x}
	case fmt.Stringer:
		return normalized{kind: kindOther, raw: x}
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return normalized{kind: kindNumber, num: decimal.NewFromInt(rv.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return normalized{kind: kindNumber, num: decimal.RequireFromString(strconv.FormatUint(rv.Uint(), 10))}
	case reflect.Float32, reflect.Float64:
		return normalized{kind: kindNumber, num: decimal.NewFromFloat(rv.Float())}
	case reflect.String:
		// named string types such as core.ExpenseCategory
		return normalized{kind: kindText, text: rv.String()}
	}
	return normalized{kind: kindOther, raw: v}
}

// compare orders a before b. Missing values sort last in both directions;
// desc only reverses the order between present values.
func compare(c *collate.Collator, a, b normalized, desc bool) int {
	switch {
	case a.kind == kindNil && b.kind == kindNil:
		return 0
	case a.kind == kindNil:
		return 1
	case b.kind == kindNil:
		return -1
	}

	var r int
	switch {
	case a.kind == kindNumber && b.kind == kindNumber:
		r = a.num.Cmp(b.num)
	case a.kind == kindText && b.kind == kindText:
		r = c.CompareString(a.text, b.text)
	case a.kind == kindTime && b.kind == kindTime:
		r = a.at.Compare(b.at)
	default:
		r = cmp.Compare(a.String(), b.String())
	}
	if desc {
		return -r
	}
	return r
}

func (n normalized) String() string {
	switch n.kind {
	case kindNumber:
		return n.num.String()
	case kindText:
		return n.text
	case kindTime:
		return n.at.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(n.raw)
	}
}
