package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"viper/internal/driver"
	"viper/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "viper [flags] file.py...",
	Short: "Compiler for a statically typed subset of Python",
	Long: `viper compiles annotated Python source to native executables, objects,
C source, LLVM IR or x86-64 assembly. Without a stage flag the inputs are
compiled and linked into an executable (a.out unless -o is given).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE:          runCompile,
}

// exitError carries a driver status out of RunE.
type exitError struct{ code driver.ExitCode }

func (e exitError) Error() string { return e.code.String() }

func main() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(watchCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.String("trace", "", "write trace events to file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson|chrome)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "events kept in memory by ring mode")
	pf.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
	registerCompileFlags(pf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	var ee exitError
	if errors.As(err, &ee) {
		os.Exit(int(ee.code))
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(int(driver.ExitConfig))
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
