// Command cc89 drives the compiler's five phases (lex, parse, semantic
// analysis, IR generation, code generation) end to end, per spec.md §5's
// "pipeline of the five stages" and SPEC_FULL.md A.1's CLI surface.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"cc89/internal/codegen/x86_64"
	"cc89/internal/diag"
	"cc89/internal/ir"
	"cc89/internal/parser"
	"cc89/internal/sema"
)

func main() {
	app := &cli.App{
		Name:      "cc89",
		Usage:     "compile a C89-subset translation unit to x86-64 SysV assembly",
		ArgsUsage: "<file.c>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write assembly to `PATH` instead of stdout"},
			&cli.BoolFlag{Name: "S", Usage: "accepted as a no-op alias for gcc -S compatibility"},
			&cli.BoolFlag{Name: "warn-as-error", Usage: "treat warnings as fatal errors"},
		},
		Action: run,
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return &exitErr{2, err}
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitErr carries the exit code a failure should produce, per SPEC_FULL.md
// A.1: 1 I/O, 2 usage, 3 compile failure.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }

func exitCodeFor(err error) int {
	if ee, ok := err.(*exitErr); ok {
		return ee.code
	}
	return 1
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return &exitErr{2, fmt.Errorf("usage: cc89 [-o out.s] <file.c>")}
	}
	srcPath := c.Args().First()

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return &exitErr{1, diag.Wrap(err, "read source")}
	}

	astFile, bag := parser.ParseFile(srcPath, string(data))
	if bag.HasErrors() {
		fmt.Fprint(os.Stderr, bag.String())
		return &exitErr{3, fmt.Errorf("parse failed")}
	}

	res := sema.AnalyzeFile(astFile, bag)
	if bag.HasErrors() {
		fmt.Fprint(os.Stderr, bag.String())
		return &exitErr{3, fmt.Errorf("semantic analysis failed")}
	}
	if c.Bool("warn-as-error") && len(bag.List) > 0 {
		fmt.Fprint(os.Stderr, bag.String())
		return &exitErr{3, fmt.Errorf("warnings treated as errors")}
	}
	if len(bag.List) > 0 {
		fmt.Fprint(os.Stderr, bag.String())
	}

	mod := ir.Generate(astFile, res)

	asm, err := x86_64.EmitModule(mod)
	if err != nil {
		return &exitErr{1, diag.Wrap(err, "codegen")}
	}

	outPath := c.String("output")
	if outPath == "" {
		fmt.Print(asm)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
		return &exitErr{1, diag.Wrap(err, "write output")}
	}
	return nil
}
