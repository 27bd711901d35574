package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kakebo/internal/sorting"
	"kakebo/internal/tables"
)

func (r *Runtime) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the available tables and what they support",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tSCOPE\tBULK DELETE\tBULK EDIT\tMERGE")
			for _, t := range r.app.Tables.All() {
				c := t.Capabilities()
				scope := t.Scope()
				if scope == "" {
					scope = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Name(), t.ID(), scope, yesNo(c.BulkDelete), yesNo(c.BulkUpdate), yesNo(c.Merge))
			}
			return tw.Flush()
		},
	}
}

func (r *Runtime) listCmd() *cobra.Command {
	var (
		format string
		path   string
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "list TABLE",
		Short: "Show the entries of a table in the saved sort order",
		Example: `  kakebo list income --period 2026-03
  kakebo list expenses -o markdown
  kakebo list debts --jsonpath '$.rows[*].name'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := r.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snap := snapshotOf(t)
			if path != "" {
				return snap.query(r.out, path)
			}
			switch format {
			case formatTable:
				return snap.writeTable(r.out)
			case formatJSON:
				return snap.writeJSON(r.out)
			case formatMarkdown:
				return snap.writeMarkdown(r.out, raw)
			default:
				return fmt.Errorf("unknown format %q: must be one of table, json, markdown", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or markdown")
	cmd.Flags().StringVar(&path, "jsonpath", "", "print only the values selected by a JSONPath expression")
	cmd.Flags().BoolVar(&raw, "raw", false, "with -o markdown, print the markdown source instead of rendering it")
	return cmd
}

func (r *Runtime) sortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort TABLE COLUMN",
		Short: "Cycle the sort of a column: ascending, descending, unsorted",
		Long: `Each call advances the sort of COLUMN one step: ascending, then
descending, then back to the server order. Choosing another column starts
again at ascending. The choice is remembered per table.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := r.table(args[0])
			if err != nil {
				return err
			}
			if !hasColumn(t, args[1]) {
				return fmt.Errorf("table %s has no column %q; expected one of %s", t.Name(), args[1], columnKeys(t))
			}
			st := t.RequestSort(args[1])
			if r.app.Prefs != nil && r.app.Prefs.Degraded() {
				fmt.Fprintln(r.errOut, "warning: preferences could not be saved; the sort applies to this run only")
			}
			if st.Direction == sorting.None {
				fmt.Fprintf(r.out, "%s: unsorted\n", t.Name())
				return nil
			}
			fmt.Fprintf(r.out, "%s: sorted by %s %s\n", t.Name(), st.Column, st.Direction)
			return nil
		},
	}
}

func (r *Runtime) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add TABLE field=value...",
		Short: "Create an entry",
		Example: `  kakebo add income item=Salary amount=1500 date=2026-03-01
  kakebo add contributions --scope 3 amount=50`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := r.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			values, err := tables.ParseValues(args[1:])
			if err != nil {
				return err
			}
			return r.report(t.Create(cmd.Context(), values))
		},
	}
}

func (r *Runtime) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "edit TABLE ID field=value...",
		Short:   "Update one entry; fields left out keep their value",
		Example: `  kakebo edit expenses 12 amount=42.50 category=comfort`,
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:2])
			if err != nil {
				return err
			}
			values, err := tables.ParseValues(args[2:])
			if err != nil {
				return err
			}
			t, err := r.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return r.report(t.Update(cmd.Context(), ids[0], values))
		},
	}
}

func (r *Runtime) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm TABLE ID",
		Short: "Delete one entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			t, err := r.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return r.report(t.Delete(cmd.Context(), ids[0]))
		},
	}
}

func (r *Runtime) bulkRmCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "bulk-rm TABLE [ID...]",
		Short: "Delete several entries after confirmation",
		Example: `  kakebo bulk-rm income 4 5 6
  kakebo bulk-rm expenses --all --period 2026-02`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ids, err := r.selection(cmd, args[0], args[1:], all)
			if err != nil {
				return err
			}
			return r.report(t.BulkDelete(cmd.Context(), ids))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "select every entry shown")
	return cmd
}

func (r *Runtime) bulkEditCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "bulk-edit TABLE [ID...] field=value...",
		Short: "Apply the same fields to several entries",
		Example: `  kakebo bulk-edit expenses 4 5 category=essential
  kakebo bulk-edit income --all currency=USD`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idArgs, pairs := splitArgs(args[1:])
			if len(pairs) == 0 {
				return fmt.Errorf("bulk-edit needs at least one field=value")
			}
			values, err := tables.ParseValues(pairs)
			if err != nil {
				return err
			}
			t, ids, err := r.selection(cmd, args[0], idArgs, all)
			if err != nil {
				return err
			}
			return r.report(t.BulkUpdate(cmd.Context(), ids, values))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "select every entry shown")
	return cmd
}

func (r *Runtime) mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge TABLE ID ID...",
		Short: "Merge entries into one, summing their amounts",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ids, err := r.selection(cmd, args[0], args[1:], false)
			if err != nil {
				return err
			}
			return r.report(t.Merge(cmd.Context(), ids))
		},
	}
}

// selection loads the table and selects the given ids, or every row with
// all. An empty selection is passed through so the table reports it.
func (r *Runtime) selection(cmd *cobra.Command, name string, idArgs []string, all bool) (tables.Table, []int64, error) {
	ids, err := parseIDs(idArgs)
	if err != nil {
		return nil, nil, err
	}
	if all && len(ids) > 0 {
		return nil, nil, fmt.Errorf("use either --all or ids, not both")
	}
	t, err := r.load(cmd.Context(), name)
	if err != nil {
		return nil, nil, err
	}
	if all {
		t.SelectAll()
		return t, t.Selected(), nil
	}

	t.ClearSelection()
	for _, id := range ids {
		if !t.Select(id) {
			return nil, nil, fmt.Errorf("%s has no entry %d", t.Name(), id)
		}
	}
	return t, t.Selected(), nil
}

func hasColumn(t tables.Table, key string) bool {
	for _, h := range t.Headers() {
		if h.Key == key {
			return true
		}
	}
	return false
}

func columnKeys(t tables.Table) string {
	keys := make([]string, 0, len(t.Headers()))
	for _, h := range t.Headers() {
		keys = append(keys, h.Key)
	}
	return strings.Join(keys, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
