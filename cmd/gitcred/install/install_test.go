package install

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/flarebyte/gitcred/internal/gitconfig"
	"github.com/spf13/cobra"
)

type fixture struct {
	dir       string
	exe       string
	git       string
	gitconfig string
	out       *bytes.Buffer
}

func newFixture(t *testing.T, stdin string) (*fixture, *cobra.Command, system) {
	t.Helper()
	oldSilent, oldGit, oldTarget := flagSilent, flagGit, flagTarget
	t.Cleanup(func() {
		flagSilent, flagGit, flagTarget = oldSilent, oldGit, oldTarget
		Cmd.SetIn(nil)
		Cmd.SetOut(nil)
		Cmd.SetErr(nil)
	})

	dir := t.TempDir()
	f := &fixture{
		dir:       dir,
		exe:       filepath.Join(dir, "build", "gitcred-test"),
		git:       filepath.Join(dir, "bin", "git"),
		gitconfig: filepath.Join(dir, "home", ".gitconfig"),
		out:       &bytes.Buffer{},
	}
	for _, p := range []string{f.exe, f.git} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("binary:"+filepath.Base(p)), 0o755); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	flagSilent, flagGit, flagTarget = false, f.git, filepath.Join(dir, "install")
	Cmd.SetIn(strings.NewReader(stdin))
	Cmd.SetOut(f.out)
	Cmd.SetErr(&bytes.Buffer{})

	env := map[string]string{"GIT_CONFIG_GLOBAL": f.gitconfig}
	sys := system{
		lookPath:   func(string) (string, error) { return "", errors.New("not on path") },
		executable: func() (string, error) { return f.exe, nil },
		getenv:     func(k string) string { return env[k] },
	}
	return f, Cmd, sys
}

// useRealGit points --git at the git on PATH; registering the helper runs it.
func useRealGit(t *testing.T) {
	t.Helper()
	p, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not installed")
	}
	flagGit = p
}

func TestInstall_SilentCopiesAndRegisters(t *testing.T) {
	f, cmd, sys := newFixture(t, "")
	useRealGit(t)
	flagSilent = true

	if err := run(cmd, sys); err != nil {
		t.Fatalf("install: %v", err)
	}
	dest := filepath.Join(f.dir, "install", binaryName())
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("installed binary missing: %v", err)
	}
	if string(b) != "binary:gitcred-test" {
		t.Fatalf("unexpected binary content %q", string(b))
	}
	helper, err := gitconfig.Helper(f.gitconfig)
	if err != nil {
		t.Fatalf("read helper: %v", err)
	}
	if helper != gitconfig.HelperValue(dest) {
		t.Fatalf("want helper %q, got %q", gitconfig.HelperValue(dest), helper)
	}
	if !strings.HasPrefix(f.out.String(), "Silently installing...\n") {
		t.Fatalf("unexpected output: %q", f.out.String())
	}
}

func TestInstall_PromptDeclined(t *testing.T) {
	f, cmd, sys := newFixture(t, "n\n")
	if err := run(cmd, sys); err != nil {
		t.Fatalf("install: %v", err)
	}
	if !strings.Contains(f.out.String(), "Installation cancelled.") {
		t.Fatalf("expected cancellation, got %q", f.out.String())
	}
	if _, err := os.Stat(f.gitconfig); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("git config must not be written")
	}
}

func TestInstall_PromptAccepted(t *testing.T) {
	f, cmd, sys := newFixture(t, "Yes\n")
	useRealGit(t)
	if err := run(cmd, sys); err != nil {
		t.Fatalf("install: %v", err)
	}
	if helper, _ := gitconfig.Helper(f.gitconfig); helper == "" {
		t.Fatalf("helper not registered")
	}
}

func TestInstall_ReplacesExistingInstallation(t *testing.T) {
	f, cmd, sys := newFixture(t, "")
	useRealGit(t)
	flagSilent = true
	dest := filepath.Join(f.dir, "install", binaryName())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(dest, []byte("old"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := run(cmd, sys); err != nil {
		t.Fatalf("install: %v", err)
	}
	b, _ := os.ReadFile(dest)
	if string(b) != "binary:gitcred-test" {
		t.Fatalf("existing installation not replaced: %q", string(b))
	}
}

func TestInstall_GitNotFound(t *testing.T) {
	_, cmd, sys := newFixture(t, "")
	flagSilent = true
	flagGit = ""
	err := run(cmd, sys)
	if !errors.Is(err, gitconfig.ErrGitNotFound) {
		t.Fatalf("want ErrGitNotFound, got %v", err)
	}
}

func TestInstall_KeepsGitConfigCommentsAndMode(t *testing.T) {
	f, cmd, sys := newFixture(t, "")
	useRealGit(t)
	flagSilent = true
	orig := "# my settings\n[user]\n\tname = Bob ; work identity\n"
	if err := os.MkdirAll(filepath.Dir(f.gitconfig), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(f.gitconfig, []byte(orig), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := run(cmd, sys); err != nil {
		t.Fatalf("install: %v", err)
	}
	b, err := os.ReadFile(f.gitconfig)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "# my settings") || !strings.Contains(string(b), "; work identity") {
		t.Fatalf("comments lost:\n%s", b)
	}
	if runtime.GOOS != "windows" {
		st, _ := os.Stat(f.gitconfig)
		if st.Mode().Perm() != 0o600 {
			t.Fatalf("want mode 0600, got %o", st.Mode().Perm())
		}
	}
}
