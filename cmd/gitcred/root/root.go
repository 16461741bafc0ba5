package root

import (
	"fmt"
	"io"
	"strings"

	"github.com/flarebyte/gitcred/cmd/gitcred/credential"
	"github.com/flarebyte/gitcred/cmd/gitcred/install"
	"github.com/flarebyte/gitcred/cmd/gitcred/version"
	"github.com/spf13/cobra"
)

func init() {
	// git treats helper actions case-insensitively on some platforms.
	cobra.EnableCaseInsensitive = true
}

// NewRootCmd creates the root command for gitcred.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gitcred",
		Short: "Git credential helper backed by a local file store",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().String("config", "", "Path to config file (.cue)")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	// Subcommands
	cmd.AddCommand(credential.Commands()...)
	cmd.AddCommand(credential.NewDebugCmd())
	cmd.AddCommand(install.Cmd)
	cmd.AddCommand(version.VersionCmd)

	return cmd
}

// Run executes the named command with its arguments. Names that match no
// command print usage and succeed, because git expects helpers to ignore
// actions they do not implement.
func Run(name string, args []string) error {
	return run(NewRootCmd(), name, args)
}

func run(root *cobra.Command, name string, args []string) error {
	if !strings.HasPrefix(name, "-") && !isKnown(root, name) {
		WriteUsage(root.ErrOrStderr())
		return nil
	}
	root.SetArgs(append([]string{name}, args...))
	return root.Execute()
}

func isKnown(root *cobra.Command, name string) bool {
	if strings.EqualFold(name, "help") {
		return true
	}
	for _, c := range root.Commands() {
		if strings.EqualFold(c.Name(), name) || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// WriteUsage prints the short usage notice.
func WriteUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `gitcred: git credential helper backed by a local file store

Usage:
  gitcred get|store|erase          called by git, parameters on stdin
  gitcred install [-s] [-i <git>] [-t <dir>]
  gitcred version [--short|--json]
  gitcred -h

Environment:
  GIT_CRED_STORE_FLAGS=trace       trace to stderr (passwords masked)
  GIT_CRED_STORE_CONFIG=<file>     config file (.cue)
  GIT_CRED_STORE_FILE=<file>       credential store file
`)
}

// usageError marks bad command-line input.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }
func (e usageError) ExitCode() int { return 2 }
