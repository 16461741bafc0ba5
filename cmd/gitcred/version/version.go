package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/flarebyte/gitcred/internal/buildinfo"
	"github.com/spf13/cobra"
)

var (
	flagShort bool
	flagJSON  bool
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitcred version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagShort || !flagJSON {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "gitcred %s\n", buildinfo.Summary())
			return err
		}

		// JSON goes to stdout, a human friendly line to stderr.
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "gitcred version: %s\n", buildinfo.Summary())
		out := map[string]any{
			"version":   buildinfo.ResolvedVersion(),
			"commit":    buildinfo.Commit,
			"date":      buildinfo.ResolvedDate(),
			"built_by":  buildinfo.BuiltBy,
			"go":        runtime.Version(),
			"go_os":     runtime.GOOS,
			"go_arch":   runtime.GOARCH,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
