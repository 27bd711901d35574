package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kakebo/internal/sheets"
	gsheet "kakebo/internal/sheets/google"
	sheetsmem "kakebo/internal/sheets/memory"
	"kakebo/internal/tables"
)

func (r *Runtime) exportCmd() *cobra.Command {
	var (
		tab    string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "export TABLE",
		Short: "Write a table view to a Google Sheets tab",
		Long: `Write the rows of TABLE, in the saved sort order and with the total as
last row, to a tab of the configured spreadsheet. The tab is created when
missing and replaced otherwise. Month-scoped tables default to a tab named
"<period> <table>".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var exporter sheets.Exporter
			var dry *sheetsmem.Store
			switch {
			case dryRun:
				dry = sheetsmem.New()
				exporter = dry
			case r.app.Exporter != nil:
				exporter = r.app.Exporter
			default:
				return errors.New("no spreadsheet configured; set KAKEBO_SHEETS_ID or use --dry-run")
			}

			t, err := r.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			name := tab
			if name == "" {
				name = defaultTab(t)
			}
			snap := snapshotOf(t)
			ref, err := exporter.Export(cmd.Context(), name, snap.view())
			if err != nil {
				return fmt.Errorf("export %s: %w", t.Name(), err)
			}

			if dry != nil {
				rows, _ := dry.Tab(name)
				for _, row := range rows {
					fmt.Fprintln(r.out, strings.Join(row, "\t"))
				}
			}
			fmt.Fprintf(r.out, "Exported %d %s to %s\n", snap.Count, plural(snap.Count, "row", "rows"), ref)
			return nil
		},
	}
	cmd.Flags().StringVar(&tab, "tab", "", "sheet tab to write (default derived from the table and period)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the rows that would be exported instead of writing them")
	return cmd
}

func defaultTab(t tables.Table) string {
	title := cases.Title(language.English).String(t.Labels().Plural)
	switch t.Scope() {
	case "":
		return title
	case tables.ScopeMonth:
		return gsheet.TabName(title, t.PeriodKey())
	default:
		return title + " " + t.PeriodKey()
	}
}
