package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/cli"
	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/module"
	"github.com/xplshn/impc/pkg/parser"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/util"
)

func main() {
	app := cli.NewApp("impc")
	app.Synopsis = "[options] <input.imp>"
	app.Description = "The impulse front end: parses, resolves and type-checks an impulse program into its C-ready intermediate form."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/impc>"

	var (
		outFile      string
		std          string
		target       string
		includePaths []string
		pedantic     bool
		dump         bool
		quiet        bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Write the dump into <file> instead of stdout.", "file")
	fs.String(&target, "target", "t", "", "Set the target used for word-size checks (QBE target name).", "target")
	fs.Bool(&dump, "dump", "d", false, "Dump the parsed Program.")
	fs.Bool(&quiet, "quiet", "q", false, "Do not print progress messages.")
	fs.List(&includePaths, "include", "I", []string{}, "Add a directory to the import search path.", "path")
	fs.String(&std, "std", "", "imp", "Specify language profile (imp, imp-strict)", "std")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue all warnings demanded by the current profile.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		rep := util.NewReporter(cfg)
		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		if err := cfg.ApplyStd(std); err != nil {
			rep.Error(token.Token{FileIndex: -1}, "%v", err)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target)
		cfg.IncludePaths = append(includePaths, cfg.IncludePaths...)

		if len(inputFiles) != 1 {
			rep.Error(token.Token{FileIndex: -1}, "expected exactly one input file, got %d", len(inputFiles))
		}
		step := func(format string, args ...interface{}) {
			if !quiet {
				fmt.Fprintf(os.Stderr, format+"\n", args...)
			}
		}

		path := inputFiles[0]
		content, err := os.ReadFile(path)
		if err != nil {
			rep.Error(token.Token{FileIndex: -1}, "could not read file '%s': %v", path, err)
		}

		step("Parsing '%s' (std %s, target %s)...", path, cfg.StdName, cfg.QbeTarget)
		p := parser.NewParser(cfg, rep, module.NewResolver(cfg))
		prog := p.ParseFile(path, []rune(string(content)))
		ctx := p.Context()
		step("Parsed %d entries: %d functions, %d structs, %d enums, %d globals.",
			prog.Len(), ctx.Functions.Len(), ctx.Structs.Len(), ctx.Enums.Len(), ctx.Globals.Len())

		prog.Sanitize()
		if !dump {
			return nil
		}
		return writeDump(prog, outFile)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func writeDump(prog *ast.Program, outFile string) error {
	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("create %s: %w", outFile, err)
		}
		defer f.Close()
		w = f
	}
	return prog.Dump(w)
}
