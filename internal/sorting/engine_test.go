package sorting

import (
	"testing"
	"time"

	"kakebo/internal/core"
	"kakebo/internal/prefs"
)

type row struct {
	id     int64
	amount *float64
	item   string
	date   core.Date
}

func amt(v float64) *float64 { return &v }

func columns() []Column[row] {
	return []Column[row]{
		{Key: "amount", Value: func(r row) any { return r.amount }},
		{Key: "item", Value: func(r row) any { return r.item }},
		{Key: "date", Value: func(r row) any { return r.date }},
	}
}

func ids(rows []row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestThreeClickCycle(t *testing.T) {
	data := []row{
		{id: 1, amount: amt(30)},
		{id: 2, amount: amt(10)},
		{id: 3, amount: amt(20)},
	}
	e := New("incomeTable", nil, columns())

	steps := []struct {
		want  []int64
		state State
	}{
		{[]int64{2, 3, 1}, State{Column: "amount", Direction: Asc}},
		{[]int64{1, 3, 2}, State{Column: "amount", Direction: Desc}},
		{[]int64{1, 2, 3}, State{}},
	}
	for i, step := range steps {
		got := e.RequestSort("amount")
		if got != step.state {
			t.Fatalf("click %d: expected state %+v, got %+v", i+1, step.state, got)
		}
		if view := ids(e.View(data)); !equalIDs(view, step.want) {
			t.Fatalf("click %d: expected %v, got %v", i+1, step.want, view)
		}
	}
	if !equalIDs(ids(data), []int64{1, 2, 3}) {
		t.Fatalf("input was mutated: %v", ids(data))
	}
}

func TestSwitchingColumnStartsAscending(t *testing.T) {
	e := New("t", nil, columns())
	e.RequestSort("amount")
	e.RequestSort("amount")
	if got := e.RequestSort("item"); got != (State{Column: "item", Direction: Asc}) {
		t.Fatalf("expected item asc, got %+v", got)
	}
}

func TestUnknownColumnIgnored(t *testing.T) {
	e := New("t", nil, columns())
	e.RequestSort("amount")
	if got := e.RequestSort("nope"); got != (State{Column: "amount", Direction: Asc}) {
		t.Fatalf("expected unchanged state, got %+v", got)
	}
}

func TestNullsLastInBothDirections(t *testing.T) {
	data := []row{
		{id: 1, amount: nil},
		{id: 2, amount: amt(5)},
		{id: 3, amount: nil},
		{id: 4, amount: amt(1)},
	}
	e := New("t", nil, columns())

	e.RequestSort("amount")
	if got := ids(e.View(data)); !equalIDs(got, []int64{4, 2, 1, 3}) {
		t.Fatalf("asc: expected [4 2 1 3], got %v", got)
	}
	e.RequestSort("amount")
	if got := ids(e.View(data)); !equalIDs(got, []int64{2, 4, 1, 3}) {
		t.Fatalf("desc: expected [2 4 1 3], got %v", got)
	}
}

func TestTextIsCaseInsensitive(t *testing.T) {
	data := []row{
		{id: 1, item: "banana"},
		{id: 2, item: "Apple"},
		{id: 3, item: "cherry"},
		{id: 4, item: "apple"},
	}
	e := New("t", nil, columns())
	e.RequestSort("item")
	// Apple and apple tie; stable order keeps 2 before 4
	if got := ids(e.View(data)); !equalIDs(got, []int64{2, 4, 1, 3}) {
		t.Fatalf("expected [2 4 1 3], got %v", got)
	}
}

func TestDatesCompareAsInstantsWithZeroLast(t *testing.T) {
	data := []row{
		{id: 1, date: core.NewDate(2025, 3, 1)},
		{id: 2, date: core.Date{}},
		{id: 3, date: core.NewDate(2024, 12, 31)},
	}
	e := New("t", nil, columns())
	e.RequestSort("date")
	e.RequestSort("date")
	if got := ids(e.View(data)); !equalIDs(got, []int64{1, 3, 2}) {
		t.Fatalf("expected [1 3 2], got %v", got)
	}
}

func TestCompareMixedFallsBackToString(t *testing.T) {
	c := New[row]("t", nil, nil).collator
	if r := compare(c, normalize(10), normalize("9"), false); r >= 0 {
		t.Fatalf("expected \"10\" < \"9\" as strings, got %d", r)
	}
	if r := compare(c, normalize(int64(2)), normalize(1.5), false); r <= 0 {
		t.Fatalf("expected 2 > 1.5 numerically, got %d", r)
	}
	if r := compare(c, normalize(time.Unix(10, 0)), normalize(core.NewDate(1970, 1, 1)), false); r <= 0 {
		t.Fatalf("expected later instant to compare greater, got %d", r)
	}
}

func TestSortPreferenceRoundTrip(t *testing.T) {
	store := prefs.NewDurable(prefs.NewMemoryBackend())

	first := New("incomeTable", store, columns())
	first.RequestSort("amount")
	first.RequestSort("amount")

	fresh := New("incomeTable", store, columns())
	if got := fresh.State(); got != (State{Column: "amount", Direction: Desc}) {
		t.Fatalf("expected restored amount desc, got %+v", got)
	}

	other := New("expenseTable", store, columns())
	if got := other.State(); got != (State{}) {
		t.Fatalf("expected no preference for another table, got %+v", got)
	}
}

func TestCorruptPreferenceFallsBackToUnsorted(t *testing.T) {
	cases := map[string]string{
		"malformed json":    `{"column":`,
		"direction no col":  `{"column":"","direction":"asc"}`,
		"column no dir":     `{"column":"amount","direction":""}`,
		"unknown direction": `{"column":"amount","direction":"up"}`,
		"unknown column":    `{"column":"colour","direction":"asc"}`,
		"explicit no sort":  `null`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := prefs.NewDurable(nil)
			store.Set(prefs.SortKey("incomeTable"), raw)
			e := New("incomeTable", store, columns())
			if got := e.State(); got != (State{}) {
				t.Fatalf("expected unsorted, got %+v", got)
			}
		})
	}
}

func TestResetPersistsNull(t *testing.T) {
	store := prefs.NewDurable(nil)
	e := New("t", store, columns())
	e.RequestSort("item")
	e.Reset()
	if v, _ := store.Get(prefs.SortKey("t")); v != "null" {
		t.Fatalf("expected null preference, got %q", v)
	}
	if e.SetState(State{Column: "nope", Direction: Asc}) {
		t.Fatalf("expected unknown column to be rejected")
	}
	if got := e.Columns(); len(got) != 3 || got[0] != "amount" {
		t.Fatalf("unexpected columns %v", got)
	}
}
