package target

import (
	"context"
	"io"
	"os"
	"testing"
	"time"
)

func fields() Fields {
	return Fields{Protocol: "https", Host: "mirror.example.com", Path: "org/repo.git", Target: "git:https://mirror.example.com"}
}

func TestRewrite_EmptyScriptKeepsTarget(t *testing.T) {
	got, err := Script{}.Rewrite(context.Background(), fields())
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if got != "git:https://mirror.example.com" {
		t.Fatalf("unexpected target %q", got)
	}
}

func TestRewrite_Expressions(t *testing.T) {
	cases := []struct {
		name string
		code string
		want string
	}{
		{name: "expression", code: `"git:" .. protocol .. "://example.com"`, want: "git:https://example.com"},
		{name: "explicit return", code: `if host == "mirror.example.com" then return "git:https://example.com" end return target`, want: "git:https://example.com"},
		{name: "string lib", code: `string.upper(host)`, want: "MIRROR.EXAMPLE.COM"},
		{name: "path scoped", code: `target .. "/" .. path`, want: "git:https://mirror.example.com/org/repo.git"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Script{Code: tc.code}.Rewrite(context.Background(), fields())
			if err != nil {
				t.Fatalf("rewrite: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRewrite_Failures(t *testing.T) {
	cases := []struct {
		name string
		code string
		want string
	}{
		{name: "non-string", code: `42`, want: "target script: expected string result, got number"},
		{name: "empty", code: `"  "`, want: "target script: empty result"},
		{name: "nil", code: `nil`, want: "target script: expected string result, got nil"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Script{Code: tc.code}.Rewrite(context.Background(), fields())
			if err == nil || err.Error() != tc.want {
				t.Fatalf("want %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRewrite_Sandbox(t *testing.T) {
	for _, code := range []string{`os.getenv("HOME")`, `io.open("/etc/passwd")`, `dofile("/tmp/x.lua")`} {
		if _, err := (Script{Code: code}).Rewrite(context.Background(), fields()); err == nil {
			t.Fatalf("expected sandbox error for %s", code)
		}
	}
}

func TestRewrite_Timeout(t *testing.T) {
	_, err := Script{Code: "while true do end return target", Timeout: 20 * time.Millisecond}.Rewrite(context.Background(), fields())
	if err == nil || err.Error() != "target script: timeout" {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestRewrite_PrintDoesNotReachStdout(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	oldStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	_, rewriteErr := Script{Code: "print(target) return target"}.Rewrite(context.Background(), fields())
	_ = w.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("script wrote to stdout: %q", string(got))
	}
	if rewriteErr == nil {
		t.Fatalf("expected print to be unavailable")
	}
}
