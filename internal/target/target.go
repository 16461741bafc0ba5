// Package target runs an optional Lua script that rewrites credential target
// names, for example to share one entry between mirrors of the same host.
package target

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a script run when no timeout is configured.
const DefaultTimeout = 2 * time.Second

const (
	violationTimeout = "target script: timeout"
	registryMax      = 4096
)

// Fields are exposed to the script as globals of the same lower-case names.
type Fields struct {
	Protocol string
	Host     string
	Path     string
	Target   string
}

// Script is Lua source evaluated per request. An expression without an
// explicit return is wrapped so `target .. "/mirror"` works as a one-liner.
type Script struct {
	Code    string
	Timeout time.Duration
}

// Rewrite evaluates the script and returns the new target name. An empty
// script returns f.Target unchanged.
func (s Script) Rewrite(ctx context.Context, f Fields) (string, error) {
	if strings.TrimSpace(s.Code) == "" {
		return f.Target, nil
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	L := newSandboxState()
	defer L.Close()
	L.SetContext(ctx)

	L.SetGlobal("protocol", lua.LString(f.Protocol))
	L.SetGlobal("host", lua.LString(f.Host))
	L.SetGlobal("path", lua.LString(f.Path))
	L.SetGlobal("target", lua.LString(f.Target))

	fn, err := L.LoadString(buildCode(s.Code))
	if err != nil {
		return "", fmt.Errorf("target script: %v", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeoutError(ctx, err) {
			return "", errors.New(violationTimeout)
		}
		return "", fmt.Errorf("target script: %v", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	str, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("target script: expected string result, got %s", ret.Type().String())
	}
	out := strings.TrimSpace(string(str))
	if out == "" {
		return "", errors.New("target script: empty result")
	}
	return out, nil
}

func buildCode(code string) string {
	if strings.Contains(code, "return") {
		return code
	}
	return "return (" + code + ")"
}

// newSandboxState opens only base, string and table. File loading and print
// are removed from the base library: stdout carries the answer to git.
func newSandboxState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:     true,
		RegistrySize:     256,
		RegistryMaxSize:  registryMax,
		RegistryGrowStep: 0,
	})
	openLib := func(name string, f lua.LGFunction) {
		L.Push(L.NewFunction(f))
		L.Push(lua.LString(name))
		L.Call(1, 0)
	}
	openLib(lua.BaseLibName, lua.OpenBase)
	openLib(lua.StringLibName, lua.OpenString)
	openLib(lua.TabLibName, lua.OpenTable)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "print"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func isTimeoutError(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline") || strings.Contains(msg, "context canceled")
}
