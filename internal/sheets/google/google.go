package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	applog "kakebo/internal/log"
	"kakebo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile; when both are empty the
// GOOGLE_APPLICATION_CREDENTIALS file is used.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *applog.Logger
}

var _ sheets.Exporter = (*Client)(nil)

// New creates a Sheets client authenticated with service account credentials.
// Extra options are appended after the credentials, so tests can point the
// client at a fake endpoint.
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	logger = applog.OrDiscard(logger).WithComponent(applog.ComponentSheets)

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.Debug("Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

func credentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set KAKEBO_SHEETS_CREDENTIALS_JSON, KAKEBO_SHEETS_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export replaces the content of tab with v, creating the tab when the
// spreadsheet does not have it yet.
func (c *Client) Export(ctx context.Context, tab string, v sheets.View) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	tab = strings.TrimSpace(tab)
	if tab == "" {
		return "", errors.New("missing tab name")
	}

	if err := c.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	all := fmt.Sprintf("%s!A:ZZ", quote(tab))
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", all, err)
	}

	rows := v.Values()
	vr := &gsheet.ValueRange{Values: toInterfaces(rows)}
	rng := fmt.Sprintf("%s!A1", quote(tab))
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Exported view", "tab", tab, applog.FieldCount, len(v.Rows), "range", resp.UpdatedRange)
	return resp.UpdatedRange, nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && strings.EqualFold(s.Properties.Title, tab) {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %q: %w", tab, err)
	}
	c.logger.InfoContext(ctx, "Created sheet tab", "tab", tab)
	return nil
}

// TabName returns "<prefix> <base>" unless base already starts with prefix.
// Month-scoped tables export with the period key as prefix.
func TabName(base, prefix string) string {
	base = strings.TrimSpace(base)
	prefix = strings.TrimSpace(prefix)
	if base == "" || prefix == "" || strings.HasPrefix(base, prefix+" ") {
		return base
	}
	return prefix + " " + base
}

// quote wraps tab names containing anything but letters and digits in A1
// single quotes.
func quote(tab string) string {
	for _, r := range tab {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
		}
	}
	return tab
}

func toInterfaces(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
