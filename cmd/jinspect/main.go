package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jinspect/internal/version"
)

// exitError carries a process exit code without an error message, e.g.
// when diag found problems.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// newRootCmd builds the command tree. fsys is used for every file the
// commands read or write.
func newRootCmd(fsys afero.Fs) *cobra.Command {
	a := &app{fs: fsys}
	rootCmd := &cobra.Command{
		Use:           "jinspect",
		Short:         "Static inspections and automatic fixes for Java sources",
		Long:          `jinspect analyses Java source trees, reports redundant declarations and imports, and applies their fixes`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to keep (0=unlimited)")
	pf.String("log-level", "warn", "log level (trace|debug|info|warn|error|off)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both); ring events are dumped when a command fails")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")

	rootCmd.AddCommand(newDiagCmd(a))
	rootCmd.AddCommand(newFixCmd(a))
	rootCmd.AddCommand(newRulesCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	// PersistentPostRun is skipped when RunE fails, close explicitly
	for _, c := range rootCmd.Commands() {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					a.close(fmt.Errorf("panic: %v", rec))
					panic(rec)
				}
				a.close(err)
			}()
			return run(cmd, args)
		}
	}
	return rootCmd
}

// main runs the CLI. A failing command exits with status 1 after printing
// the error; diag exits with 1 silently when findings remain.
func main() {
	rootCmd := newRootCmd(afero.NewOsFs())
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "jinspect: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли writer терминалом
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
