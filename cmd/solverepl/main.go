// Command solverepl is an interactive read-eval-print loop over
// internal/scope.Scope: each line is one "t1 <: t2" obligation, line
// edited and colored the way internal/repl/repl.go drives the AILANG
// evaluator, but against the subtype solver instead.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

func main() {
	var noColorFlag = flag.Bool("no-color", false, "disable colored output even on a tty")
	flag.Parse()

	if *noColorFlag || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	if flag.NArg() > 0 && flag.Arg(0) == "help" {
		fmt.Println("usage: solverepl [-no-color]")
		return
	}

	New().Start(os.Stdout)
}
