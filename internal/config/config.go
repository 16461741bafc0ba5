package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Environment variables read by Resolve.
const (
	EnvFlags  = "GIT_CRED_STORE_FLAGS"
	EnvConfig = "GIT_CRED_STORE_CONFIG"
	EnvFile   = "GIT_CRED_STORE_FILE"
)

// Config is the effective helper configuration.
type Config struct {
	ConfigVersion string
	StorePath     string
	TargetScript  string
	TargetTimeout time.Duration
	Trace         bool
}

// Flags are the comma separated switches from GIT_CRED_STORE_FLAGS.
type Flags struct {
	Trace bool
	Debug bool
}

// ParseFlags reads a comma separated, case-insensitive flag list. Unknown
// entries are ignored.
func ParseFlags(s string) Flags {
	var f Flags
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "trace":
			f.Trace = true
		case "debug":
			f.Debug = true
		}
	}
	return f
}

// Load compiles a CUE config file. Required fields:
//   - configVersion: string
//
// Optional fields: store.path, target.script, target.timeoutMs, trace.
func Load(path string) (Config, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := requireStringField(v, "configVersion"); err != nil {
		return Config{}, err
	}
	if err := decodeString(v, "configVersion", &c.ConfigVersion); err != nil {
		return Config{}, err
	}
	if !IsSupportedConfigVersion(c.ConfigVersion) {
		return Config{}, fmt.Errorf("unsupported configVersion: %q (supported: %s)", c.ConfigVersion, SupportedConfigVersionsCSV())
	}
	if err := decodeString(v, "store.path", &c.StorePath); err != nil {
		return Config{}, err
	}
	if c.StorePath != "" && !filepath.IsAbs(c.StorePath) {
		c.StorePath = filepath.Join(filepath.Dir(path), c.StorePath)
	}
	if err := decodeString(v, "target.script", &c.TargetScript); err != nil {
		return Config{}, err
	}
	tv := v.LookupPath(cue.ParsePath("target.timeoutMs"))
	if tv.Exists() {
		ms, err := tv.Int64()
		if err != nil {
			return Config{}, errors.New("invalid type for field: target.timeoutMs (expected int)")
		}
		if ms < 0 {
			return Config{}, fmt.Errorf("invalid value for target.timeoutMs: %d", ms)
		}
		c.TargetTimeout = time.Duration(ms) * time.Millisecond
	}
	bv := v.LookupPath(cue.ParsePath("trace"))
	if bv.Exists() {
		if bv.Kind() != cue.BoolKind {
			return Config{}, errors.New("invalid type for field: trace (expected bool)")
		}
		if err := bv.Decode(&c.Trace); err != nil {
			return Config{}, fmt.Errorf("invalid value for trace: %v", err)
		}
	}
	return c, nil
}

// Resolve builds the effective config: the CUE file named by explicitPath
// or GIT_CRED_STORE_CONFIG, then GIT_CRED_STORE_FILE and
// GIT_CRED_STORE_FLAGS on top, then defaults.
func Resolve(explicitPath string, getenv func(string) string) (Config, error) {
	c := Config{ConfigVersion: CurrentConfigVersion}
	path := explicitPath
	if path == "" {
		path = getenv(EnvConfig)
	}
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		c = loaded
	}
	if p := getenv(EnvFile); p != "" {
		c.StorePath = p
	}
	if f := ParseFlags(getenv(EnvFlags)); f.Trace || f.Debug {
		c.Trace = true
	}
	if c.StorePath == "" {
		p, err := DefaultStorePath()
		if err != nil {
			return Config{}, err
		}
		c.StorePath = p
	}
	return c, nil
}

// DefaultStorePath is credentials.yaml under the user config directory.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "gitcred", "credentials.yaml"), nil
}

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, errors.New("unsupported config format: expected .cue")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

func requireStringField(v cue.Value, name string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return fmt.Errorf("missing required field: %s", name)
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	return nil
}

// decodeString fills dst when the field exists. Absent fields leave dst alone.
func decodeString(v cue.Value, name string, dst *string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	if err := f.Decode(dst); err != nil {
		return fmt.Errorf("invalid value for %s: %v", name, err)
	}
	return nil
}
