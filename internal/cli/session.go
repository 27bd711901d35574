package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"kakebo/internal/period"
	"kakebo/internal/tables"
)

const sessionHelp = `Commands:
  next | prev           move to the following or previous month
  period YYYY-MM        jump to a month
  summary               row counts and totals of the month tables
  quit                  leave the session
Any other line runs as a kakebo command for the current month, e.g.
  list income -o markdown
  add expenses item="Weekly shop" amount=84.20 category=essential`

func (r *Runtime) sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Interactive session that keeps month tables in step with the period",
		Long: `Start an interactive session. The month-scoped tables are bound to a shared
period: moving to another month refetches all of them at once.

` + sessionHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := r.currentPeriod()
			if err != nil {
				return err
			}
			return r.runSession(cmd.Context(), start)
		},
	}
}

func (r *Runtime) runSession(ctx context.Context, start period.Period) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pc := period.NewContext(start)
	r.app.Tables.Bind(ctx, pc)
	r.app.Tables.Wait()
	r.summary(pc.Current())

	sc := bufio.NewScanner(r.in)
	for {
		fmt.Fprintf(r.out, "kakebo %s> ", pc.Current().Key())
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		words, err := splitLine(sc.Text())
		if err != nil {
			fmt.Fprintln(r.out, "Error:", err)
			continue
		}
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "quit", "exit":
			return nil
		case "help", "?":
			fmt.Fprintln(r.out, sessionHelp)
		case "next":
			r.move(pc, pc.Next)
		case "prev":
			r.move(pc, pc.Prev)
		case "period":
			if len(words) != 2 {
				fmt.Fprintln(r.out, "Error: usage: period YYYY-MM")
				continue
			}
			p, err := period.ParseKey(words[1])
			if err != nil {
				fmt.Fprintln(r.out, "Error:", err)
				continue
			}
			r.move(pc, func() { pc.Set(p) })
		case "summary":
			r.summary(pc.Current())
		case "session":
			fmt.Fprintln(r.out, "Error: already in a session")
		default:
			r.runLine(ctx, pc.Current(), words)
		}
	}
}

func (r *Runtime) move(pc *period.Context, step func()) {
	step()
	r.app.Tables.Wait()
	r.summary(pc.Current())
}

// summary prints one line per month-scoped table.
func (r *Runtime) summary(p period.Period) {
	fmt.Fprintf(r.out, "Period %s\n", p.Key())
	for _, t := range r.app.Tables.All() {
		if t.Scope() != tables.ScopeMonth {
			continue
		}
		if err := t.Err(); err != nil {
			fmt.Fprintf(r.out, "  %-16s error: %v\n", t.Name(), err)
			continue
		}
		s := snapshotOf(t)
		fmt.Fprintf(r.out, "  %-16s %3d %-5s %s\n", t.Name(), s.Count, plural(s.Count, "row", "rows"), s.totalText())
	}
}

// runLine executes words as a command against the shared App.
func (r *Runtime) runLine(ctx context.Context, p period.Period, words []string) {
	sub := NewRootCommand(
		WithApp(r.app),
		WithIO(r.in, r.out, r.errOut),
		WithClock(r.now),
	)
	args := words
	if !hasFlag(words, "--period", "-p") {
		args = append(args, "--period", p.Key())
	}
	if r.scope != "" && !hasFlag(words, "--scope", "-s") {
		args = append(args, "--scope", r.scope)
	}
	sub.SetArgs(args)
	if err := sub.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(r.out, "Error:", err)
	}
}

func hasFlag(words []string, names ...string) bool {
	for _, w := range words {
		for _, n := range names {
			if w == n || strings.HasPrefix(w, n+"=") {
				return true
			}
		}
	}
	return false
}

// splitLine splits on spaces, keeping double-quoted runs together.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, c := range line {
		switch {
		case c == '"':
			quoted = !quoted
			pending = true
		case unicode.IsSpace(c) && !quoted:
			if pending {
				words = append(words, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(c)
			pending = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if pending {
		words = append(words, cur.String())
	}
	return words, nil
}
