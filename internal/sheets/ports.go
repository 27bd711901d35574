package sheets

import (
	"context"
)

// View is a displayed table flattened to text cells, ready for a sheet tab.
type View struct {
	Headers []string
	Rows    [][]string
	// Footer is appended after the rows when non-empty, typically the total.
	Footer []string
}

// Values lays the view out row by row, header first.
func (v View) Values() [][]string {
	out := make([][]string, 0, len(v.Rows)+2)
	out = append(out, v.Headers)
	out = append(out, v.Rows...)
	if len(v.Footer) > 0 {
		out = append(out, v.Footer)
	}
	return out
}

// Exporter writes a view into the named tab, replacing what was there, and
// returns a reference to the written range.
type Exporter interface {
	Export(ctx context.Context, tab string, v View) (ref string, err error)
}
