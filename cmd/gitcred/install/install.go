package install

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/flarebyte/gitcred/internal/config"
	"github.com/flarebyte/gitcred/internal/gitconfig"
	"github.com/flarebyte/gitcred/internal/trace"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagSilent bool
	flagGit    string
	flagTarget string
)

// Cmd implements `gitcred install`.
var Cmd = &cobra.Command{
	Use:           "install",
	Short:         "Copy gitcred to a stable location and register it with git",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, system{
			lookPath:   exec.LookPath,
			executable: os.Executable,
			getenv:     os.Getenv,
		})
	},
}

func init() {
	Cmd.Flags().BoolVarP(&flagSilent, "silent", "s", false, "Install without prompting")
	Cmd.Flags().StringVarP(&flagGit, "git", "i", "", "Path to the git executable")
	Cmd.Flags().StringVarP(&flagTarget, "target", "t", "", "Directory to install gitcred into")
}

// system holds the process-level lookups install depends on.
type system struct {
	lookPath   func(string) (string, error)
	executable func() (string, error)
	getenv     func(string) string
}

func run(cmd *cobra.Command, sys system) error {
	out := cmd.OutOrStdout()
	log := trace.New(cmd.ErrOrStderr(), config.ParseFlags(sys.getenv(config.EnvFlags)).Trace)
	log.Info().Msg("entering install mode")

	if flagSilent {
		_, _ = fmt.Fprintln(out, "Silently installing...")
	} else if !confirm(cmd.InOrStdin(), out) {
		_, _ = fmt.Fprintln(out, "Installation cancelled.")
		return nil
	}

	gitPath, err := gitconfig.FindGit(flagGit, sys.lookPath)
	if err != nil {
		return fmt.Errorf("%w: ensure git is on PATH or pass its location with --git", err)
	}
	log.Info().Str("git", gitPath).Msg("using git")

	dir, err := targetDir(flagTarget, sys.getenv)
	if err != nil {
		return err
	}
	dest, err := copySelf(sys, dir, log)
	if err != nil {
		return err
	}

	cfgPath, err := gitconfig.GlobalPath(sys.getenv)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := gitconfig.SetHelper(ctx, gitPath, cfgPath, gitconfig.HelperValue(dest)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Installed %s\nSet credential.helper in %s\n", dest, cfgPath)
	return nil
}

func confirm(in io.Reader, out io.Writer) bool {
	_, _ = fmt.Fprint(out, "Install gitcred as your git credential helper? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func targetDir(flag string, getenv func(string) string) (string, error) {
	if flag != "" {
		dir := os.Expand(flag, getenv)
		if strings.TrimSpace(dir) == "" {
			return "", fmt.Errorf("invalid install path: %q", flag)
		}
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(base, "gitcred"), nil
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "gitcred.exe"
	}
	return "gitcred"
}

// copySelf copies the running executable into dir and returns its new path.
func copySelf(sys system, dir string, log zerolog.Logger) (string, error) {
	exe, err := sys.executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate gitcred executable: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create install dir: %w", err)
	}
	dest, err := filepath.Abs(filepath.Join(dir, binaryName()))
	if err != nil {
		return "", err
	}
	if same, _ := sameFile(exe, dest); same {
		log.Info().Str("dest", dest).Msg("already installed in place")
		return dest, nil
	}
	if _, err := os.Stat(dest); err == nil {
		log.Info().Str("dest", dest).Msg("found existing installation, replacing")
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf("failed to remove existing installation: %w", err)
		}
	}
	if err := copyFile(exe, dest); err != nil {
		return "", fmt.Errorf("failed to copy gitcred: %w", err)
	}
	return dest, nil
}

func sameFile(a, b string) (bool, error) {
	sa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(sa, sb), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
