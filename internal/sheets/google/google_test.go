package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"

	"kakebo/internal/sheets"
)

// fakeSheets answers the four Sheets endpoints the exporter uses.
type fakeSheets struct {
	mu      sync.Mutex
	tabs    []string
	added   []string
	cleared []string
	written map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
			f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
		}
		io.WriteString(w, `{"spreadsheetId":"sheet-1","replies":[{}]}`)
	case strings.HasSuffix(path, ":clear"):
		rng := strings.TrimSuffix(path[strings.Index(path, "/values/")+len("/values/"):], ":clear")
		f.cleared = append(f.cleared, rng)
		io.WriteString(w, `{"clearedRange":"`+rng+`"}`)
	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		var vr struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&vr)
		if f.written == nil {
			f.written = map[string][][]any{}
		}
		f.written[rng] = vr.Values
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng, "updatedRows": len(vr.Values)})
	case r.Method == http.MethodGet:
		var out struct {
			Sheets []map[string]map[string]string `json:"sheets"`
		}
		for _, tab := range f.tabs {
			out.Sheets = append(out.Sheets, map[string]map[string]string{"properties": {"title": tab}})
		}
		json.NewEncoder(w).Encode(out)
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "  "}, nil)
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Errorf("New() error = %v", err)
	}
}

func TestCredentials(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr string
	}{
		{"inline wins", Config{CredentialsJSON: `{"inline":true}`, CredentialsFile: file}, `{"inline":true}`, ""},
		{"file", Config{CredentialsFile: file}, `{"type":"service_account"}`, ""},
		{"missing file", Config{CredentialsFile: filepath.Join(dir, "nope.json")}, "", "read service account file"},
		{"nothing", Config{}, "", "missing service account credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := credentials(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("credentials() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil || string(got) != tt.want {
				t.Errorf("credentials() = %q, %v", got, err)
			}
		})
	}
}

func TestExport_CreatesTabAndWritesRows(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"Summary"}}
	c := newTestClient(t, fake)

	view := sheets.View{
		Headers: []string{"Date", "Item", "Amount"},
		Rows: [][]string{
			{"2026-03-01", "Salary", "1500.00"},
			{"2026-03-10", "Gift", "20.00"},
		},
		Footer: []string{"", "Total", "1520.00"},
	}
	ref, err := c.Export(context.Background(), "2026-03 Income", view)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if ref != "'2026-03 Income'!A1" {
		t.Errorf("Export() ref = %q", ref)
	}
	if len(fake.added) != 1 || fake.added[0] != "2026-03 Income" {
		t.Errorf("added tabs = %v", fake.added)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "'2026-03 Income'!A:ZZ" {
		t.Errorf("cleared ranges = %v", fake.cleared)
	}

	rows := fake.written["'2026-03 Income'!A1"]
	if len(rows) != 4 {
		t.Fatalf("written rows = %d, want header, two rows and footer", len(rows))
	}
	if rows[0][1] != "Item" || rows[2][1] != "Gift" || rows[3][2] != "1520.00" {
		t.Errorf("written rows = %v", rows)
	}
}

func TestExport_ExistingTab(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"Debts"}}
	c := newTestClient(t, fake)

	if _, err := c.Export(context.Background(), "debts", sheets.View{Headers: []string{"Name"}}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(fake.added) != 0 {
		t.Errorf("an existing tab must not be re-added, got %v", fake.added)
	}
}

func TestExport_Errors(t *testing.T) {
	c := newTestClient(t, &fakeSheets{})
	if _, err := c.Export(context.Background(), " ", sheets.View{}); err == nil {
		t.Error("Export() with an empty tab should fail")
	}

	var nilSvc Client
	if _, err := nilSvc.Export(context.Background(), "x", sheets.View{}); err == nil {
		t.Error("Export() without a service should fail")
	}
}

func TestTabName(t *testing.T) {
	tests := []struct {
		base, prefix, want string
	}{
		{"Income", "2026-03", "2026-03 Income"},
		{"2026-03 Income", "2026-03", "2026-03 Income"},
		{"Debts", "", "Debts"},
		{" ", "2026-03", ""},
	}
	for _, tt := range tests {
		if got := TabName(tt.base, tt.prefix); got != tt.want {
			t.Errorf("TabName(%q, %q) = %q, want %q", tt.base, tt.prefix, got, tt.want)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"Debts":          "Debts",
		"2026-03 Income": "'2026-03 Income'",
		"Bob's":          "'Bob''s'",
	}
	for in, want := range tests {
		if got := quote(in); got != want {
			t.Errorf("quote(%q) = %q, want %q", in, got, want)
		}
	}
}
