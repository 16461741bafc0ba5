// Package gitconfig registers this binary as git's credential helper. Edits
// go through the git executable; go-git's config decoder reads values back.
package gitconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	gitfmt "github.com/go-git/go-git/v5/plumbing/format/config"
)

// ErrGitNotFound is returned when no git executable can be located.
var ErrGitNotFound = errors.New("could not find git")

const (
	sectionCredential = "credential"
	keyHelper         = "helper"
)

// GlobalPath returns the global config file git would write with --global:
// GIT_CONFIG_GLOBAL when set, else ~/.gitconfig.
func GlobalPath(getenv func(string) string) (string, error) {
	if p := getenv("GIT_CONFIG_GLOBAL"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home dir: %w", err)
	}
	return filepath.Join(home, ".gitconfig"), nil
}

// HelperValue formats exe as a shell-escaped helper command.
func HelperValue(exe string) string {
	return "!'" + filepath.ToSlash(exe) + "'"
}

// FindGit returns explicit when it names an existing file, otherwise the
// first git executable on PATH.
func FindGit(explicit string, lookPath func(string) (string, error)) (string, error) {
	if explicit != "" {
		st, err := os.Stat(explicit)
		if err != nil || st.IsDir() {
			return "", fmt.Errorf("%w at %s", ErrGitNotFound, explicit)
		}
		return explicit, nil
	}
	name := "git"
	if runtime.GOOS == "windows" {
		name = "git.exe"
	}
	p, err := lookPath(name)
	if err != nil {
		return "", ErrGitNotFound
	}
	return p, nil
}

// Helper returns credential.helper from the config at path, or "" if unset.
func Helper(path string) (string, error) {
	cfg, err := read(path)
	if err != nil {
		return "", err
	}
	if !cfg.HasSection(sectionCredential) {
		return "", nil
	}
	return cfg.Section(sectionCredential).Option(keyHelper), nil
}

// SetHelper runs git to set credential.helper in the config file at path,
// then reads the file back to confirm the value. git edits the file in place,
// so comments, other options and the file mode are left alone.
func SetHelper(ctx context.Context, gitPath, path, helper string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create git config dir: %w", err)
	}
	cmd := exec.CommandContext(ctx, gitPath, "config", "--file", path, "--replace-all",
		sectionCredential+"."+keyHelper, helper)
	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("git config failed: %w", err)
		}
		return fmt.Errorf("git config failed: %w: %s", err, msg)
	}
	got, err := Helper(path)
	if err != nil {
		return err
	}
	if got != helper {
		return fmt.Errorf("credential.helper in %s is %q, expected %q", path, got, helper)
	}
	return nil
}

func read(path string) (*gitfmt.Config, error) {
	cfg := gitfmt.New()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read git config: %w", err)
	}
	if err := gitfmt.NewDecoder(bytes.NewReader(b)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("invalid git config %s: %v", path, err)
	}
	return cfg, nil
}
