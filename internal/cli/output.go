package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/PaesslerAG/jsonpath"
	"github.com/charmbracelet/glamour"

	"kakebo/internal/core"
	"kakebo/internal/sheets"
	"kakebo/internal/tables"
)

const (
	formatTable    = "table"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// snapshot is one table view as shown by list, json and markdown output.
type snapshot struct {
	Table    string           `json:"table"`
	Name     string           `json:"name"`
	Period   string           `json:"period,omitempty"`
	Sort     string           `json:"sort,omitempty"`
	Currency string           `json:"currency"`
	Total    float64          `json:"total"`
	Count    int              `json:"count"`
	Rows     []map[string]any `json:"rows"`

	headers []tables.Header
	cells   [][]string
	ids     []int64
}

func snapshotOf(t tables.Table) snapshot {
	s := snapshot{
		Table:    t.ID(),
		Name:     t.Name(),
		Period:   t.PeriodKey(),
		Currency: t.Currency(),
		Total:    t.Total(),
		headers:  t.Headers(),
	}
	if st := t.SortState(); st.Column != "" {
		s.Sort = st.Column + " " + string(st.Direction)
	}
	for _, row := range t.Rows() {
		obj := map[string]any{"id": row.ID}
		for i, h := range s.headers {
			if i < len(row.Cells) {
				obj[h.Key] = row.Cells[i]
			}
		}
		s.Rows = append(s.Rows, obj)
		s.cells = append(s.cells, row.Cells)
		s.ids = append(s.ids, row.ID)
	}
	s.Count = len(s.Rows)
	if s.Rows == nil {
		s.Rows = []map[string]any{}
	}
	return s
}

func (s snapshot) totalText() string {
	return core.FormatAmount(s.Total, s.Currency)
}

func (s snapshot) writeTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	head := []string{"ID"}
	for _, h := range s.headers {
		head = append(head, h.Label)
	}
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	for i, cells := range s.cells {
		fmt.Fprintln(tw, strconv.FormatInt(s.ids[i], 10)+"\t"+strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d %s, total %s\n", s.Count, plural(s.Count, "row", "rows"), s.totalText())
	return err
}

func (s snapshot) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func (s snapshot) markdown() string {
	var b strings.Builder
	title := s.Name
	if s.Period != "" {
		title += " (" + s.Period + ")"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if s.Count == 0 {
		b.WriteString("_No entries._\n")
		return b.String()
	}

	b.WriteString("| ID |")
	for _, h := range s.headers {
		b.WriteString(" " + escapeCell(h.Label) + " |")
	}
	b.WriteString("\n|---:|")
	for range s.headers {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, cells := range s.cells {
		fmt.Fprintf(&b, "| %d |", s.ids[i])
		for _, c := range cells {
			b.WriteString(" " + escapeCell(c) + " |")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n**Total:** %s\n", s.totalText())
	return b.String()
}

func (s snapshot) writeMarkdown(w io.Writer, raw bool) error {
	md := s.markdown()
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(0))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// query evaluates a JSONPath expression against the JSON form of the view,
// e.g. "$.rows[*].amount" or "$.total".
func (s snapshot) query(w io.Writer, path string) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return fmt.Errorf("jsonpath %q: %w", path, err)
	}
	switch v := val.(type) {
	case []any:
		for _, item := range v {
			if err := printScalar(w, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return printScalar(w, v)
	}
}

func printScalar(w io.Writer, v any) error {
	switch x := v.(type) {
	case string:
		_, err := fmt.Fprintln(w, x)
		return err
	case float64:
		_, err := fmt.Fprintln(w, strconv.FormatFloat(x, 'f', -1, 64))
		return err
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

// view flattens a snapshot for spreadsheet export.
func (s snapshot) view() sheets.View {
	v := sheets.View{Headers: []string{"ID"}}
	for _, h := range s.headers {
		v.Headers = append(v.Headers, h.Label)
	}
	for i, cells := range s.cells {
		v.Rows = append(v.Rows, append([]string{strconv.FormatInt(s.ids[i], 10)}, cells...))
	}
	footer := make([]string, len(v.Headers))
	footer[0] = "Total"
	footer[len(footer)-1] = s.totalText()
	v.Footer = footer
	return v
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
