// Command scopecheck runs YAML-defined subtyping scenarios (spec §8's
// "concrete scenarios", externalized to fixture files) against a fresh
// internal/scope.Scope per scenario and reports pass/fail, in the
// flag-dispatch, color-gated style of cmd/typecheck and cmd/ailang.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/rzikm/effekt/internal/errors"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		fixturesFlag = flag.String("fixtures", "", "path to a YAML scenario fixture file")
		noColorFlag  = flag.Bool("no-color", false, "disable colored output even on a tty")
		versionFlag  = flag.Bool("version", false, "print version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(bold("scopecheck"), "dev")
		return
	}

	if *noColorFlag || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	if *fixturesFlag == "" {
		fmt.Fprintf(os.Stderr, "%s: missing required -fixtures <path.yaml>\n", red("Error"))
		flag.Usage()
		os.Exit(1)
	}

	scenarios, err := loadFixtures(*fixturesFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	if len(scenarios) == 0 {
		fmt.Println(yellow("no scenarios found in fixture file"))
		return
	}

	failures := 0
	for _, sc := range scenarios {
		fmt.Printf("%s %s\n", bold("scenario:"), sc.Name)
		for _, res := range runScenario(sc) {
			label := fmt.Sprintf("%s <: %s", res.assertion.LHS, res.assertion.RHS)
			switch {
			case res.ok && res.gotError == nil:
				fmt.Printf("  %s %s\n", green("PASS"), label)
			case res.ok && res.gotError != nil:
				fmt.Printf("  %s %s (aborted as expected: %v)\n", green("PASS"), label, res.gotError)
			default:
				failures++
				fmt.Printf("  %s %s (want_error=%v, got=%v)\n", red("FAIL"), label, res.assertion.WantError, res.gotError)
				if rep, ok := errors.AsReport(res.gotError); ok {
					switch {
					case errors.IsMergeError(rep.Code):
						fmt.Printf("    %s %s\n", yellow("hint:"), "bounds could not be merged at the required polarity; consider widening one side")
					case errors.IsSubstitutionError(rep.Code):
						fmt.Printf("    %s %s\n", yellow("hint:"), "a capture variable leaked into a concrete substitution domain")
					}
				}
			}
		}
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "\n%s: %d assertion(s) failed\n", red("Error"), failures)
		os.Exit(1)
	}
	fmt.Println(green("\nall scenarios passed"))
}
