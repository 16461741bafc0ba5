package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRead(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]string
	}{
		{
			name: "typical get request",
			in:   "protocol=https\nhost=example.com\n\n",
			want: map[string]string{"protocol": "https", "host": "example.com"},
		},
		{
			name: "stops at blank line",
			in:   "host=a\n\nhost=b\n",
			want: map[string]string{"host": "a"},
		},
		{
			name: "whitespace-only line ends input",
			in:   "host=a\n   \nusername=x\n",
			want: map[string]string{"host": "a"},
		},
		{
			name: "eof without blank line",
			in:   "username=bob",
			want: map[string]string{"username": "bob"},
		},
		{
			name: "value keeps later equals signs",
			in:   "password=a=b=c\n",
			want: map[string]string{"password": "a=b=c"},
		},
		{
			name: "malformed lines skipped and last duplicate wins",
			in:   "garbage\nhost=one\nhost=two\r\n",
			want: map[string]string{"host": "two"},
		},
		{
			name: "empty input",
			in:   "",
			want: map[string]string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tc.in))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRead_LongValue(t *testing.T) {
	token := strings.Repeat("a", 100*1024)
	got, err := Read(strings.NewReader("host=example.com\npassword=" + token + "\nusername=bob\n\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got["password"]) != len(token) {
		t.Fatalf("want password of %d bytes, got %d", len(token), len(got["password"]))
	}
	if got["username"] != "bob" {
		t.Fatalf("want username after long line, got %q", got["username"])
	}
}

func TestWrite_StableOrder(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, map[string]string{
		"zeta":     "1",
		"password": "p",
		"alpha":    "2",
		"username": "u",
		"host":     "h",
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "host=h\nusername=u\npassword=p\nalpha=2\nzeta=1\n"
	if buf.String() != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, buf.String())
	}
}

func TestWrite_RejectsNewlines(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, map[string]string{"password": "a\nhost=evil"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "invalid value for parameter: password" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadWriteAgree(t *testing.T) {
	in := map[string]string{"protocol": "https", "host": "example.com:8443", "username": "bob", "password": "s=cret"}
	var buf bytes.Buffer
	if err := Write(&buf, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
