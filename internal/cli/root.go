// Package cli implements the docket command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is the docket version, overridden at build time with
// -ldflags "-X github.com/mesh-intelligence/docket/internal/cli.Version=...".
var Version = "0.1.0-dev"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	storeRoot string
	logLevel  string
	jsonMode  bool
}

// app carries the flags of one root command so that tests can build
// independent command trees.
type app struct {
	flags rootFlags
}

// NewRootCmd creates the top-level "docket" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "docket",
		Short: "Chronological numbering for evidence and attachments",
		Long: `docket keeps a catalog of evidence and attachment files, resolves the
date each one refers to, and gives them gap-free chronological numbers that
are carried in the file names.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.docket-db)")
	root.PersistentFlags().StringVar(&a.flags.storeRoot, "store-root", "", "local artifact store root (default: $(CWD))")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newIntakeCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newResolveDatesCmd(a))
	root.AddCommand(newConfirmCmd(a))
	root.AddCommand(newInsertCmd(a))
	root.AddCommand(newDedupCmd(a))
	root.AddCommand(newCompactCmd(a))
	root.AddCommand(newValidateCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "docket:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// cliError attaches an exit code to an error.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

// sysErr marks err as an environment failure (exit code 2).
func sysErr(format string, args ...any) error {
	return &cliError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUserError
}
