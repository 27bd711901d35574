package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"kakebo/internal/backend"
	"kakebo/internal/confirm"
	"kakebo/internal/table"
)

func newApp(t *testing.T, confirmer table.Confirmer) *backend.App {
	t.Helper()
	app, err := backend.NewFactory(nil, confirmer).Create(context.Background(), backend.Config{
		Prefs:           backend.MemoryPrefs,
		PrefsCacheSize:  16,
		DefaultCurrency: "EUR",
		Language:        language.English,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func march() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

// run executes one command line against app and returns stdout.
func run(t *testing.T, app *backend.App, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(
		WithApp(app),
		WithIO(strings.NewReader(stdin), &out, &errOut),
		WithClock(march),
	)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, app *backend.App, args ...string) string {
	t.Helper()
	out, err := run(t, app, "", args...)
	if err != nil {
		t.Fatalf("%v: error = %v", args, err)
	}
	return out
}

func seedIncome(t *testing.T, app *backend.App) {
	t.Helper()
	mustRun(t, app, "add", "income", "item=Salary", "amount=1500", "date=2026-03-01")
	mustRun(t, app, "add", "income", "item=Bonus", "amount=200", "date=2026-03-10")
	mustRun(t, app, "add", "income", "item=Refund", "amount=30", "date=2026-03-12")
}

func TestTablesCommand(t *testing.T) {
	app := newApp(t, confirm.Always(true))
	out := mustRun(t, app, "tables")

	for _, want := range []string{"NAME", "income", "incomeTable", "month", "contributions", "savings_account_id"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 9 {
		t.Errorf("lines = %d, want header plus 8 tables", n)
	}
}

func TestAddAndList(t *testing.T) {
	app := newApp(t, confirm.Always(true))

	out := mustRun(t, app, "add", "income", "item=Salary", "amount=1500", "date=2026-03-01")
	if strings.TrimSpace(out) != "Income entry created" {
		t.Errorf("add output = %q", out)
	}
	mustRun(t, app, "add", "income", "item=Bonus", "amount=200", "date=2026-03-10")
	mustRun(t, app, "add", "income", "item=April", "amount=99", "date=2026-04-02")

	t.Run("table", func(t *testing.T) {
		out := mustRun(t, app, "list", "income")
		if !strings.Contains(out, "Salary") || !strings.Contains(out, "Bonus") {
			t.Errorf("list output missing rows:\n%s", out)
		}
		if strings.Contains(out, "April") {
			t.Errorf("list shows an entry from another month:\n%s", out)
		}
		if !strings.Contains(out, "2 rows, total") {
			t.Errorf("list output missing footer:\n%s", out)
		}
	})

	t.Run("other period", func(t *testing.T) {
		out := mustRun(t, app, "list", "income", "--period", "2026-04")
		if !strings.Contains(out, "April") || !strings.Contains(out, "1 row,") {
			t.Errorf("list --period output:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out := mustRun(t, app, "list", "income", "-o", "json")
		var got struct {
			Table  string           `json:"table"`
			Period string           `json:"period"`
			Total  float64          `json:"total"`
			Count  int              `json:"count"`
			Rows   []map[string]any `json:"rows"`
		}
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid json: %v\n%s", err, out)
		}
		if got.Table != "incomeTable" || got.Period != "2026-03" || got.Count != 2 || got.Total != 1700 {
			t.Errorf("json = %+v", got)
		}
		if got.Rows[0]["item"] != "Salary" {
			t.Errorf("first row = %v", got.Rows[0])
		}
	})

	t.Run("markdown", func(t *testing.T) {
		out := mustRun(t, app, "list", "income", "-o", "markdown", "--raw")
		for _, want := range []string{"# income (2026-03)", "| ID |", "| 1 |", "**Total:**"} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("rendered markdown", func(t *testing.T) {
		out := mustRun(t, app, "list", "income", "-o", "markdown")
		if !strings.Contains(out, "Salary") {
			t.Errorf("rendered markdown missing rows:\n%s", out)
		}
	})

	t.Run("jsonpath", func(t *testing.T) {
		out := mustRun(t, app, "list", "income", "--jsonpath", "$.rows[*].item")
		if out != "Salary\nBonus\n" {
			t.Errorf("jsonpath items = %q", out)
		}
		out = mustRun(t, app, "list", "income", "--jsonpath", "$.total")
		if out != "1700\n" {
			t.Errorf("jsonpath total = %q", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := run(t, app, "", "list", "income", "-o", "xml"); err == nil {
			t.Error("expected an error for an unknown format")
		}
	})
}

func TestAddValidationError(t *testing.T) {
	app := newApp(t, confirm.Always(true))

	_, err := run(t, app, "", "add", "income", "item=Salary", "amount=0", "date=2026-03-01")
	if err == nil || err.Error() != "Amount must be greater than 0" {
		t.Errorf("error = %v", err)
	}
	if _, err := run(t, app, "", "add", "income", "item"); err == nil {
		t.Error("expected an error for a pair without '='")
	}
	if _, err := run(t, app, "", "add", "nope"); err == nil || !strings.Contains(err.Error(), "unknown table") {
		t.Errorf("unknown table error = %v", err)
	}
}

func TestSortCycle(t *testing.T) {
	app := newApp(t, confirm.Always(true))
	seedIncome(t, app)

	steps := []string{
		"income: sorted by amount asc\n",
		"income: sorted by amount desc\n",
		"income: unsorted\n",
	}
	for _, want := range steps {
		if got := mustRun(t, app, "sort", "income", "amount"); got != want {
			t.Errorf("sort output = %q, want %q", got, want)
		}
	}

	mustRun(t, app, "sort", "income", "amount")
	out := mustRun(t, app, "list", "income", "--jsonpath", "$.rows[*].item")
	if out != "Refund\nBonus\nSalary\n" {
		t.Errorf("ascending order = %q", out)
	}

	if _, err := run(t, app, "", "sort", "income", "colour"); err == nil || !strings.Contains(err.Error(), "no column") {
		t.Errorf("unknown column error = %v", err)
	}
}

func TestSortWarnsWhenPrefsUnsaved(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	app, err := backend.NewFactory(nil, confirm.Always(true)).Create(context.Background(), backend.Config{
		Prefs:           backend.FilePrefs,
		PrefsFile:       filepath.Join(blocker, "prefs.json"),
		DefaultCurrency: "EUR",
		Language:        language.English,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { app.Close() })

	var out, errOut bytes.Buffer
	root := NewRootCommand(WithApp(app), WithIO(strings.NewReader(""), &out, &errOut), WithClock(march))
	root.SetArgs([]string{"sort", "income", "amount"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("sort error = %v", err)
	}
	if out.String() != "income: sorted by amount asc\n" {
		t.Errorf("sort output = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "preferences could not be saved") {
		t.Errorf("stderr = %q, want the unsaved preferences warning", errOut.String())
	}
}

func TestEditAndRemove(t *testing.T) {
	app := newApp(t, confirm.Always(true))
	seedIncome(t, app)

	if out := mustRun(t, app, "edit", "income", "2", "amount=250"); strings.TrimSpace(out) != "Income entry updated" {
		t.Errorf("edit output = %q", out)
	}
	if out := mustRun(t, app, "list", "income", "--jsonpath", "$.total"); out != "1780\n" {
		t.Errorf("total after edit = %q", out)
	}

	if out := mustRun(t, app, "rm", "income", "3"); strings.TrimSpace(out) != "Income entry deleted" {
		t.Errorf("rm output = %q", out)
	}
	if out := mustRun(t, app, "list", "income", "--jsonpath", "$.count"); out != "2\n" {
		t.Errorf("count after rm = %q", out)
	}

	if _, err := run(t, app, "", "rm", "income", "x"); err == nil {
		t.Error("expected an error for a malformed id")
	}
}

func TestRemoveDeclined(t *testing.T) {
	app := newApp(t, confirm.Always(false))
	mustRun(t, app, "add", "income", "item=Salary", "amount=1500", "date=2026-03-01")

	if out := mustRun(t, app, "rm", "income", "1"); strings.TrimSpace(out) != "Cancelled." {
		t.Errorf("rm output = %q", out)
	}
	if out := mustRun(t, app, "list", "income", "--jsonpath", "$.count"); out != "1\n" {
		t.Errorf("count after declined rm = %q", out)
	}
}

func TestBulkCommands(t *testing.T) {
	t.Run("bulk-rm ids", func(t *testing.T) {
		app := newApp(t, confirm.Always(true))
		seedIncome(t, app)
		out := mustRun(t, app, "bulk-rm", "income", "1,2")
		if strings.TrimSpace(out) != "Deleted 2 income entries" {
			t.Errorf("bulk-rm output = %q", out)
		}
	})

	t.Run("bulk-rm repeated id", func(t *testing.T) {
		app := newApp(t, confirm.Always(true))
		seedIncome(t, app)
		out := mustRun(t, app, "bulk-rm", "income", "1", "1")
		if strings.TrimSpace(out) != "Deleted 1 income entry" {
			t.Errorf("bulk-rm output = %q", out)
		}
		if out := mustRun(t, app, "list", "income", "--jsonpath", "$.count"); out != "2\n" {
			t.Errorf("count after bulk-rm = %q", out)
		}
	})

	t.Run("bulk-rm all", func(t *testing.T) {
		app := newApp(t, confirm.Always(true))
		seedIncome(t, app)
		mustRun(t, app, "bulk-rm", "income", "--all")
		if out := mustRun(t, app, "list", "income", "--jsonpath", "$.count"); out != "0\n" {
			t.Errorf("count after bulk-rm --all = %q", out)
		}
	})

	t.Run("bulk-rm all with ids", func(t *testing.T) {
		app := newApp(t, confirm.Always(true))
		seedIncome(t, app)
		if _, err := run(t, app, "", "bulk-rm", "income", "1", "--all"); err == nil {
			t.Error("expected an error when combining --all with ids")
		}
	})

	t.Run("bulk-rm unknown id", func(t *testing.T) {
		app := newApp(t, confirm.Always(true))
		seedIncome(t, app)
		if _, err := run(t, app, "", "bulk-rm", "income", "1", "42"); err == nil || !strings.Contains(err.Error(), "no entry 42") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("bulk-edit", func(t *testing.T) {
		app := newApp(t, confirm.Always(true))
		seedIncome(t, app)
		out := mustRun(t, app, "bulk-edit", "income", "2", "3", "currency=USD")
		if strings.TrimSpace(out) != "Updated 2 income entries" {
			t.Errorf("bulk-edit output = %q", out)
		}
		if out := mustRun(t, app, "list", "income", "--jsonpath", "$.rows[*].currency"); out != "EUR\nUSD\nUSD\n" {
			t.Errorf("currencies = %q", out)
		}
		if _, err := run(t, app, "", "bulk-edit", "income", "1", "2"); err == nil {
			t.Error("expected an error without field=value")
		}
	})

	t.Run("merge", func(t *testing.T) {
		app := newApp(t, confirm.Always(true))
		seedIncome(t, app)
		out := mustRun(t, app, "merge", "income", "2", "3")
		if strings.TrimSpace(out) != "Merged 2 income entries" {
			t.Errorf("merge output = %q", out)
		}
		if out := mustRun(t, app, "list", "income", "--jsonpath", "$.count"); out != "2\n" {
			t.Errorf("count after merge = %q", out)
		}
		if out := mustRun(t, app, "list", "income", "--jsonpath", "$.total"); out != "1730\n" {
			t.Errorf("total after merge = %q", out)
		}
	})
}

func TestScopedTableNeedsScope(t *testing.T) {
	app := newApp(t, confirm.Always(true))

	_, err := run(t, app, "", "list", "contributions")
	if err == nil || !strings.Contains(err.Error(), "needs --scope") {
		t.Errorf("error = %v", err)
	}
	if _, err := run(t, app, "", "list", "contributions", "--scope", "abc"); err == nil {
		t.Error("expected an error for a non numeric scope")
	}
	if _, err := run(t, app, "", "list", "income", "--period", "March"); err == nil {
		t.Error("expected an error for a malformed period")
	}
}

func TestExport(t *testing.T) {
	app := newApp(t, confirm.Always(true))
	seedIncome(t, app)

	out := mustRun(t, app, "export", "income", "--dry-run")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("dry run printed %d lines, want header, 3 rows, footer and summary:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ID\tDate\tItem") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[4], "Total\t") {
		t.Errorf("footer = %q", lines[4])
	}
	if lines[5] != "Exported 3 rows to mem:2026-03 Income Entries!A1:5" {
		t.Errorf("summary = %q", lines[5])
	}

	out = mustRun(t, app, "export", "income", "--dry-run", "--tab", "March")
	if !strings.Contains(out, "to mem:March!A1:5") {
		t.Errorf("custom tab output = %q", out)
	}

	if _, err := run(t, app, "", "export", "income"); err == nil || !strings.Contains(err.Error(), "no spreadsheet configured") {
		t.Errorf("error without exporter = %v", err)
	}
}

func TestSession(t *testing.T) {
	app := newApp(t, confirm.Always(true))
	seedIncome(t, app)

	script := "next\nprev\nlist income --jsonpath $.count\nbogus\nperiod 2025-12\nquit\n"
	out, err := run(t, app, script, "session")
	if err != nil {
		t.Fatalf("session error = %v", err)
	}
	for _, want := range []string{
		"Period 2026-03",
		"kakebo 2026-03> ",
		"Period 2026-04",
		"kakebo 2026-04> ",
		"3\n",
		"Error: unknown command",
		"Period 2025-12",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("session output missing %q:\n%s", want, out)
		}
	}
}

func TestWatchWithoutBroker(t *testing.T) {
	app := newApp(t, confirm.Always(true))
	_, err := run(t, app, "", "watch")
	if err == nil || !strings.Contains(err.Error(), "no AMQP broker") {
		t.Errorf("error = %v", err)
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"  list   income ", []string{"list", "income"}, false},
		{`add expenses item="Weekly shop" amount=84`, []string{"add", "expenses", "item=Weekly shop", "amount=84"}, false},
		{`edit income 1 item=""`, []string{"edit", "income", "1", "item="}, false},
		{`add "oops`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int64
		wantErr bool
	}{
		{"separate", []string{"1", "2"}, []int64{1, 2}, false},
		{"commas", []string{"1,2", " 3 "}, []int64{1, 2, 3}, false},
		{"empty", nil, []int64{}, false},
		{"zero", []string{"0"}, nil, true},
		{"text", []string{"a"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitArgs(t *testing.T) {
	ids, values := splitArgs([]string{"1", "2", "amount=3", "item=x"})
	if !reflect.DeepEqual(ids, []string{"1", "2"}) || !reflect.DeepEqual(values, []string{"amount=3", "item=x"}) {
		t.Errorf("splitArgs() = %v, %v", ids, values)
	}
	ids, values = splitArgs([]string{"1"})
	if len(ids) != 1 || values != nil {
		t.Errorf("splitArgs() without pairs = %v, %v", ids, values)
	}
}
