// Package credential models what git asks a helper for and how a request
// maps to a stored entry.
package credential

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	// DefaultProtocol is assumed when git sends no protocol.
	DefaultProtocol = "https"
	// DefaultHost is assumed when git sends no host.
	DefaultHost = "no-host.git"
	// TargetPrefix starts every target name.
	TargetPrefix = "git:"
)

// Credential is a username and password pair.
type Credential struct {
	Username string
	Password string
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ssh":   "22",
	"git":   "9418",
}

// URL rebuilds the remote URL from git parameters. A parameter that is absent
// takes its default; a parameter that is present but empty is used as is.
func URL(params map[string]string) (*url.URL, error) {
	scheme := lookup(params, "protocol", DefaultProtocol)
	host := lookup(params, "host", DefaultHost)
	path := lookup(params, "path", "")

	candidate := fmt.Sprintf("%s://%s/%s", scheme, host, path)
	u, err := url.Parse(candidate)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("failed to parse url: %s", candidate)
	}
	return u, nil
}

// Origin returns scheme://host[:port] in lower case. Ports equal to the
// scheme default are dropped.
func Origin(u *url.URL) (string, error) {
	if u == nil {
		return "", errors.New("nil url")
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port != "" && defaultPorts[scheme] != port {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}

// TargetName is the store key for u. The path is left out so one entry
// serves every repository on a host.
func TargetName(u *url.URL) (string, error) {
	origin, err := Origin(u)
	if err != nil {
		return "", err
	}
	return TargetPrefix + origin, nil
}

func lookup(params map[string]string, key, def string) string {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
