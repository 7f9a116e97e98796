// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"rangecheck/grammar"
	"rangecheck/internal/dataflow"
	"rangecheck/internal/ir"
)

func main() {
	contextDepth := flag.Int("context-depth", 2, "maximum interprocedural call-context depth")
	seed := flag.Int64("seed", 1, "seed for widening's entropy noise source")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: rangecheck <input-module> [<output-path>]")
		os.Exit(-1)
	}

	inputPath := args[0]

	gmod, err := grammar.ParseFile(inputPath)
	if err != nil {
		// A syntax error has already been printed as a caret-style
		// diagnostic; a file that cannot be read exits without a message.
		os.Exit(-1)
	}

	mod, err := ir.Build(gmod)
	if err != nil {
		color.Red("error: %s", err)
		os.Exit(-1)
	}

	engine := dataflow.NewEngine(mod, dataflow.NewSource(*seed), *contextDepth)
	engine.AnalyzeModule()
	output := engine.FormatReports()

	if len(args) < 2 {
		fmt.Print(output)
		os.Exit(0)
	}

	if err := os.WriteFile(args[1], []byte(output), 0o644); err != nil {
		color.Yellow("warning: could not write %s: %s, printing to stdout instead", args[1], err)
		fmt.Print(output)
	}
	os.Exit(0)
}
