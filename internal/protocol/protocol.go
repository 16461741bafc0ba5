// Package protocol reads and writes the key=value lines git exchanges with
// credential helpers.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// leadingKeys are written first, in this order, so output reads the way git
// itself prints credentials.
var leadingKeys = []string{"protocol", "host", "path", "username", "password"}

// maxLineSize bounds a single key=value line. Tokens such as JWTs and
// certificate blobs exceed bufio's 64 KiB default.
const maxLineSize = 16 << 20

// Read parses key=value lines until the first blank line or EOF. Lines
// without '=' are skipped. Only the first '=' separates key from value and a
// repeated key keeps its last value.
func Read(r io.Reader) (map[string]string, error) {
	params := map[string]string{}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		params[key] = value
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parameters: %w", err)
	}
	return params, nil
}

// Write emits params as key=value lines. Known keys come first, the rest
// follow in sorted order.
func Write(w io.Writer, params map[string]string) error {
	bw := bufio.NewWriter(w)
	for _, k := range Keys(params) {
		v := params[k]
		if err := validate(k, v); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "%s=%s\n", k, v); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Keys returns the keys of params in output order.
func Keys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	seen := make(map[string]bool, len(leadingKeys))
	for _, k := range leadingKeys {
		if _, ok := params[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(params))
	for k := range params {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func validate(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\n\x00") {
		return fmt.Errorf("invalid parameter key: %q", key)
	}
	if strings.ContainsAny(value, "\n\x00") {
		return fmt.Errorf("invalid value for parameter: %s", key)
	}
	return nil
}
