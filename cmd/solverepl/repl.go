package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/rzikm/effekt/internal/cliparse"
	"github.com/rzikm/effekt/internal/scope"
	"github.com/rzikm/effekt/internal/solvertypes"
)

func newScope() *scope.Scope { return scope.New() }

func asUVar(t solvertypes.ValueType) (*solvertypes.UVar, bool) {
	return solvertypes.IsUVar(t)
}

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// REPL drives one live Scope across a sequence of "t1 <: t2" lines,
// mirroring internal/repl/repl.go's liner+history+command shape but
// against the solver instead of the AILANG evaluator.
type REPL struct {
	scope *scope.Scope
	vars  *cliparse.VarEnv
}

// New creates a REPL with a fresh, empty Scope.
func New() *REPL {
	s := scope.New()
	return &REPL{scope: s, vars: cliparse.NewVarEnv(s)}
}

// Start begins the read-eval-print loop, reading lines from the terminal
// through liner and writing all output to out.
func (r *REPL) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	historyFile := filepath.Join(os.TempDir(), ".solverepl_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintln(out, bold("solverepl"), dim("— one 't1 <: t2' obligation per line"))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	for {
		input, err := line.Prompt("<: ")
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if input == ":quit" || input == ":q" || input == ":exit" {
				fmt.Fprintln(out, green("Goodbye!"))
				break
			}
			r.handleCommand(input, out)
			continue
		}

		r.processObligation(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func (r *REPL) handleCommand(cmd string, out io.Writer) {
	switch cmd {
	case ":help":
		fmt.Fprintln(out, "  <type> <: <type>   assert a subtyping obligation against the live scope")
		fmt.Fprintln(out, "  :reports           show accumulated error reports")
		fmt.Fprintln(out, "  :reset             start a fresh, empty scope")
		fmt.Fprintln(out, "  :quit              exit")
		fmt.Fprintln(out, "  types: Int, String, Top, Bottom, Ctor[Arg, ...], ?name (fresh variable)")
	case ":reports":
		reports := r.scope.Reports()
		if len(reports) == 0 {
			fmt.Fprintln(out, dim("(no reports)"))
			return
		}
		for _, rep := range reports {
			fmt.Fprintf(out, "  %s %s: %s\n", red(rep.Code), rep.Phase, rep.Message)
		}
	case ":reset":
		r.scope = newScope()
		r.vars = cliparse.NewVarEnv(r.scope)
		fmt.Fprintln(out, green("scope reset"))
	default:
		fmt.Fprintf(out, "%s: unknown command %q (try :help)\n", red("Error"), cmd)
	}
}

func (r *REPL) processObligation(input string, out io.Writer) {
	t1, t2, err := cliparse.ParseObligation(input, r.vars)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
		return
	}

	if err := r.scope.RequireSubtype(t1, t2); err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("abort"), err)
		return
	}

	fmt.Fprintf(out, "%s %s <: %s\n", green("ok"), t1, t2)

	if v, ok := asUVar(t1); ok {
		l, u := r.scope.BoundsFor(v)
		fmt.Fprintf(out, "  %s bounds: %s <: %s <: %s\n", t1, l, t1, u)
	}
	if v, ok := asUVar(t2); ok && !t1.Equals(t2) {
		l, u := r.scope.BoundsFor(v)
		fmt.Fprintf(out, "  %s bounds: %s <: %s <: %s\n", t2, l, t2, u)
	}
}
