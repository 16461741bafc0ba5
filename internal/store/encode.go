package store

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/flarebyte/gitcred/internal/credential"
	"gopkg.in/yaml.v3"
)

// FileVersion is the only store file layout understood so far.
const FileVersion = "1"

type fileDoc struct {
	Version     string               `yaml:"version"`
	Credentials map[string]fileEntry `yaml:"credentials"`
}

type fileEntry struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Marshal returns canonical YAML bytes for a set of credentials keyed by
// target name. Output is byte-stable for equal input.
func Marshal(creds map[string]credential.Credential) ([]byte, error) {
	top := &yaml.Node{Kind: yaml.MappingNode}
	top.Content = append(top.Content, scalarNode("version"), scalarFrom(FileVersion))
	top.Content = append(top.Content, scalarNode("credentials"), credentialsNode(creds))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

// Unmarshal decodes store file bytes. Empty input is an empty store.
func Unmarshal(b []byte) (map[string]credential.Credential, error) {
	creds := map[string]credential.Credential{}
	if len(bytes.TrimSpace(b)) == 0 {
		return creds, nil
	}
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("invalid store file: %v", err)
	}
	if doc.Version != FileVersion {
		return nil, fmt.Errorf("unsupported store version: %q (supported: %s)", doc.Version, FileVersion)
	}
	for target, e := range doc.Credentials {
		creds[target] = credential.Credential{Username: e.Username, Password: e.Password}
	}
	return creds, nil
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// scalarFrom lets the encoder pick quoting, so values such as "yes" or "012"
// survive a round trip as strings.
func scalarFrom(v string) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}

func credentialsNode(creds map[string]credential.Credential) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	if len(creds) == 0 {
		n.Style = yaml.FlowStyle
		return n
	}
	targets := make([]string, 0, len(creds))
	for k := range creds {
		targets = append(targets, k)
	}
	sort.Strings(targets)
	for _, target := range targets {
		c := creds[target]
		entry := &yaml.Node{Kind: yaml.MappingNode}
		entry.Content = append(entry.Content,
			scalarNode("username"), scalarFrom(c.Username),
			scalarNode("password"), scalarFrom(c.Password),
		)
		n.Content = append(n.Content, scalarFrom(target), entry)
	}
	return n
}
