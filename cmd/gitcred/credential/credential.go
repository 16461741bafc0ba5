package credential

import (
	"fmt"
	"os"

	"github.com/flarebyte/gitcred/internal/config"
	"github.com/flarebyte/gitcred/internal/helper"
	"github.com/flarebyte/gitcred/internal/protocol"
	"github.com/flarebyte/gitcred/internal/store"
	"github.com/flarebyte/gitcred/internal/target"
	"github.com/flarebyte/gitcred/internal/trace"
	"github.com/spf13/cobra"
)

var shorts = map[string]string{
	"get":   "Print the stored credential for the host described on stdin",
	"store": "Save the credential described on stdin",
	"erase": "Remove the credential for the host described on stdin",
}

// Commands returns one command per registered helper operation.
func Commands() []*cobra.Command {
	names := helper.Names()
	cmds := make([]*cobra.Command, 0, len(names))
	for _, name := range names {
		cmds = append(cmds, newOpCmd(name))
	}
	return cmds
}

func newOpCmd(name string) *cobra.Command {
	return &cobra.Command{
		Use:           name,
		Short:         shorts[name],
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := protocol.Read(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return execute(cmd, name, params)
		},
	}
}

// NewDebugCmd builds `gitcred debug`, which takes the operation name from the
// cmd parameter so a request can be replayed from a file.
func NewDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "debug",
		Short:         "Run the operation named by the cmd= parameter on stdin",
		Hidden:        true,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := protocol.Read(cmd.InOrStdin())
			if err != nil {
				return err
			}
			name := params["cmd"]
			delete(params, "cmd")
			if _, ok := helper.Lookup(name); !ok {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "debug: unknown cmd parameter %q\n", name)
				return nil
			}
			return execute(cmd, name, params)
		},
	}
}

func execute(cmd *cobra.Command, name string, params map[string]string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	trace.Params(env.Log, "from git", params, protocol.Keys(params))
	out, err := helper.Run(cmd.Context(), name, env, params)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return nil
	}
	trace.Params(env.Log, "to git", out, protocol.Keys(out))
	return protocol.Write(cmd.OutOrStdout(), out)
}

func newEnv(cmd *cobra.Command) (helper.Env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Resolve(cfgPath, os.Getenv)
	if err != nil {
		return helper.Env{}, err
	}
	env := helper.Env{
		Store:  store.NewFile(cfg.StorePath),
		Log:    trace.New(cmd.ErrOrStderr(), cfg.Trace),
		Stderr: cmd.ErrOrStderr(),
	}
	if cfg.TargetScript != "" {
		env.Rewriter = target.Script{Code: cfg.TargetScript, Timeout: cfg.TargetTimeout}
	}
	env.Log.Info().Str("store", cfg.StorePath).Msg("using credential store")
	return env, nil
}
