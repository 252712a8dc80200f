package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"viper/internal/config"
	"viper/internal/driver"
)

func registerCompileFlags(fs *pflag.FlagSet) {
	def := config.Default()

	// Stages.
	fs.Bool("show-tokens", false, "print the token stream")
	fs.Bool("show-ast", false, "print the syntax tree")
	fs.Bool("show-ir", false, "print the IR after --passes (or --pass)")
	fs.Bool("show-source", false, "print what --backend generates")
	fs.Bool("show-c", false, "print C source (same as --backend c --show-source)")
	fs.Bool("show-llvm", false, "print LLVM IR")
	fs.Bool("show-asm", false, "print x86-64 assembly")
	fs.BoolP("asm", "S", false, "write x86-64 assembly to file.s")
	fs.BoolP("compile", "c", false, "compile to an object file, do not link")
	fs.Bool("print-targets", false, "list the supported target triples and exit")

	// Options.
	fs.String("config", "", "use this viper.toml instead of searching upwards")
	fs.String("target", def.Target, "target triple")
	fs.String("backend", def.Backend, "code generator (native|llvm|c|x86)")
	fs.StringSlice("passes", nil, "IR passes to run, in order")
	fs.String("pass", "", "run a single pass and print the IR")
	fs.Bool("strict", def.Strict, "reject implicit narrowing and mixed numeric types")
	fs.IntP("jobs", "j", def.Jobs, "compile units in parallel (0 = one per CPU)")
	fs.Bool("tree", false, "draw AST/IR dumps as trees")
	fs.Bool("indent", false, "indent AST/IR dumps")
	fs.Bool("show-line-numbers", false, "append byte offsets to tokens")
	fs.Bool("json", false, "print tokens and diagnostics as JSON")
	fs.Bool("symtab-only", false, "lower declarations only and write the .vmod interface")
	fs.Bool("no-warnings", false, "drop warnings")
	fs.Bool("no-error-banner", false, "omit the internal compiler error banner")
	fs.Bool("show-stacktrace", false, "symbolize internal compiler error tracebacks")
	fs.Bool("time-report", false, "print stage timings")
	fs.Int("max-diagnostics", def.MaxDiagnostics, "maximum number of diagnostics per file")
	fs.Bool("static", false, "link statically")
	fs.Bool("openmp", false, "link with -fopenmp")
	fs.Bool("fast", false, "optimize generated code (-O3)")
	fs.StringP("output", "o", "", "output file")
	fs.String("runtime-dir", "", "where the runtime library is built")
	fs.String("cc", "", "C compiler for runtime, C sources and linking (default $VIPER_CC or cc)")
	ui := progressAuto
	fs.Var(&ui, "ui", "progress UI for multi-file builds (auto|on|off)")
}

// loadOptions builds the effective options: defaults, then viper.toml, then
// the flags the user actually set.
func loadOptions(cmd *cobra.Command, env *driver.Env) (config.Options, error) {
	fs := cmd.Flags()
	opts := config.Default()
	opts.Target = env.DefaultTarget

	path, _ := fs.GetString("config")
	if path == "" {
		found, ok, err := config.FindFile(".")
		if err != nil {
			return opts, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		var err error
		if opts, err = config.LoadFile(path, opts); err != nil {
			return opts, err
		}
	}

	strs := map[string]*string{
		"target":      &opts.Target,
		"backend":     &opts.Backend,
		"pass":        &opts.Pass,
		"output":      &opts.Output,
		"runtime-dir": &opts.RuntimeDir,
		"cc":          &opts.CC,
	}
	for name, dst := range strs {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	bools := map[string]*bool{
		"strict":            &opts.Strict,
		"tree":              &opts.Tree,
		"indent":            &opts.Indent,
		"show-line-numbers": &opts.ShowLineNumbers,
		"json":              &opts.JSON,
		"symtab-only":       &opts.SymtabOnly,
		"no-warnings":       &opts.NoWarnings,
		"no-error-banner":   &opts.NoErrorBanner,
		"show-stacktrace":   &opts.ShowStacktrace,
		"time-report":       &opts.TimeReport,
		"static":            &opts.Static,
		"openmp":            &opts.OpenMP,
		"fast":              &opts.Fast,
	}
	for name, dst := range bools {
		if fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}
	ints := map[string]*int{
		"jobs":            &opts.Jobs,
		"max-diagnostics": &opts.MaxDiagnostics,
	}
	for name, dst := range ints {
		if fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}
	if fs.Changed("passes") {
		opts.Passes, _ = fs.GetStringSlice("passes")
	}

	color, _ := fs.GetString("color")
	switch strings.ToLower(color) {
	case "on", "always":
		opts.Color = true
	case "off", "never":
		opts.Color = false
	case "auto", "":
		opts.Color = opts.Color || isTerminal(os.Stderr)
	default:
		return opts, fmt.Errorf("invalid --color value %q (expected auto|on|off)", color)
	}
	return opts, nil
}
