package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kakebo/internal/backend"
	"kakebo/internal/core"
	"kakebo/internal/period"
	"kakebo/internal/table"
	"kakebo/internal/tables"
)

// Runtime carries the streams and the lazily opened App shared by every
// command of one invocation.
type Runtime struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	open  func(ctx context.Context) (*backend.App, error)
	app   *backend.App
	owned bool

	periodKey string
	scope     string
	assumeYes bool
}

type Option func(*Runtime)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(r *Runtime) {
		r.in, r.out, r.errOut = in, out, errOut
	}
}

// WithApp makes every command use app. The caller keeps ownership.
func WithApp(app *backend.App) Option {
	return func(r *Runtime) {
		r.open = func(context.Context) (*backend.App, error) { return app, nil }
	}
}

// WithClock replaces the clock used for the default period.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) { r.now = now }
}

// NewRootCommand builds the kakebo command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	r := &Runtime{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
	}
	r.open = func(ctx context.Context) (*backend.App, error) {
		r.owned = true
		return OpenApp(ctx, r.in, r.out, r.errOut, r.assumeYes)
	}
	for _, opt := range opts {
		opt(r)
	}

	root := &cobra.Command{
		Use:   "kakebo",
		Short: "Household budget tables from the command line",
		Long: `kakebo lists and edits the household budget: income, expenses, fixed
expenses, debts, savings accounts and contributions, projects and wishlist
items. Month-scoped tables follow --period; scoped tables need --scope.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsApp(cmd) {
				return nil
			}
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			r.app = app
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return r.release()
		},
	}
	root.SetIn(r.in)
	root.SetOut(r.out)
	root.SetErr(r.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&r.periodKey, "period", "p", "", "month for month-scoped tables (YYYY-MM, default current month)")
	pf.StringVarP(&r.scope, "scope", "s", "", "parent id for scoped tables (savings account or wishlist)")
	pf.BoolVarP(&r.assumeYes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(
		r.tablesCmd(),
		r.listCmd(),
		r.sortCmd(),
		r.addCmd(),
		r.editCmd(),
		r.rmCmd(),
		r.bulkRmCmd(),
		r.bulkEditCmd(),
		r.mergeCmd(),
		r.exportCmd(),
		r.sessionCmd(),
		r.watchCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// needsApp is false for cobra's own help and completion commands.
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

func (r *Runtime) release() error {
	if r.app == nil || !r.owned {
		return nil
	}
	app := r.app
	r.app = nil
	return app.Close()
}

func (r *Runtime) table(name string) (tables.Table, error) {
	if r.app == nil {
		return nil, errors.New("backend not initialized")
	}
	return r.app.Tables.Get(name)
}

// currentPeriod returns the --period month, or the current one.
func (r *Runtime) currentPeriod() (period.Period, error) {
	if r.periodKey == "" {
		return period.Of(r.now()), nil
	}
	p, err := period.ParseKey(r.periodKey)
	if err != nil {
		return period.Period{}, fmt.Errorf("invalid --period %q: %w", r.periodKey, err)
	}
	return p, nil
}

// scopeKey returns the fetch key for t: the month for month-scoped tables,
// --scope for parent-scoped tables and nothing for global ones.
func (r *Runtime) scopeKey(t tables.Table) (string, error) {
	switch t.Scope() {
	case "":
		return "", nil
	case tables.ScopeMonth:
		p, err := r.currentPeriod()
		if err != nil {
			return "", err
		}
		return p.Key(), nil
	default:
		if strings.TrimSpace(r.scope) == "" {
			return "", fmt.Errorf("table %s needs --scope <%s>", t.Name(), t.Scope())
		}
		if _, err := strconv.ParseInt(r.scope, 10, 64); err != nil {
			return "", fmt.Errorf("invalid --scope %q: %s must be a number", r.scope, t.Scope())
		}
		return r.scope, nil
	}
}

// load resolves and fetches the named table.
func (r *Runtime) load(ctx context.Context, name string) (tables.Table, error) {
	t, err := r.table(name)
	if err != nil {
		return nil, err
	}
	key, err := r.scopeKey(t)
	if err != nil {
		return nil, err
	}
	if res := t.Fetch(ctx, key); !res.OK {
		return nil, errors.New(res.Message)
	}
	return t, nil
}

// report prints a successful result, swallows a declined confirmation and
// turns any other failure into an error.
func (r *Runtime) report(res table.Result) error {
	switch {
	case res.OK:
		if res.Message != "" {
			fmt.Fprintln(r.out, res.Message)
		}
		return nil
	case res.Message == core.ErrCancelled.Error():
		fmt.Fprintln(r.out, "Cancelled.")
		return nil
	default:
		return errors.New(res.Message)
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// splitArgs separates leading ids from trailing field=value pairs.
func splitArgs(args []string) (ids, values []string) {
	for i, a := range args {
		if strings.Contains(a, "=") {
			return args[:i], args[i:]
		}
	}
	return args, nil
}
