// Package helper implements the credential operations git asks a helper to
// perform, keyed by operation name.
package helper

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/flarebyte/gitcred/internal/credential"
	"github.com/flarebyte/gitcred/internal/target"
	"github.com/rs/zerolog"
)

// Store persists credentials by target name.
type Store interface {
	Get(target string) (credential.Credential, error)
	Put(target string, c credential.Credential) error
	Delete(target string) error
}

// Rewriter maps a computed target name to the one used for storage.
type Rewriter interface {
	Rewrite(ctx context.Context, f target.Fields) (string, error)
}

// Env carries the dependencies of an operation.
type Env struct {
	Store    Store
	Rewriter Rewriter
	Log      zerolog.Logger
	// Stderr receives user-facing notices. git shows them to the user.
	Stderr io.Writer
}

// Op runs one operation and returns the parameters to send back to git.
type Op func(ctx context.Context, env Env, params map[string]string) (map[string]string, error)

var registry = map[string]Op{
	"get":   getOp,
	"store": storeOp,
	"erase": eraseOp,
}

// Lookup finds an operation by name, ignoring case.
func Lookup(name string) (Op, bool) {
	op, ok := registry[strings.ToLower(name)]
	return op, ok
}

// Names lists the registered operations in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Run executes a registered operation by name.
func Run(ctx context.Context, name string, env Env, params map[string]string) (map[string]string, error) {
	op, ok := Lookup(name)
	if !ok {
		return nil, ErrUnknown{name: name}
	}
	if env.Stderr == nil {
		env.Stderr = io.Discard
	}
	env.Log.Info().Str("op", name).Msg("executing command")
	return op(ctx, env, params)
}

// ErrUnknown is returned when an operation is not registered.
type ErrUnknown struct{ name string }

func (e ErrUnknown) Error() string { return "unknown command: " + e.name }
