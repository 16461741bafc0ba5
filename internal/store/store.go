// Package store keeps credentials in a single YAML file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flarebyte/gitcred/internal/credential"
)

// ErrNotFound is returned when no credential exists for a target.
var ErrNotFound = errors.New("credential not found")

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// File is a credential store backed by one file on disk. Every call reads the
// file afresh; writes replace it atomically.
type File struct {
	path string
}

// NewFile returns a store at path. The file is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Get returns the credential stored under target.
func (f *File) Get(target string) (credential.Credential, error) {
	creds, err := f.load()
	if err != nil {
		return credential.Credential{}, err
	}
	c, ok := creds[target]
	if !ok {
		return credential.Credential{}, ErrNotFound
	}
	return c, nil
}

// Put stores c under target, replacing any previous entry.
func (f *File) Put(target string, c credential.Credential) error {
	creds, err := f.load()
	if err != nil {
		return err
	}
	creds[target] = c
	return f.save(creds)
}

// Delete removes target. ErrNotFound is returned if it was never stored.
func (f *File) Delete(target string) error {
	creds, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := creds[target]; !ok {
		return ErrNotFound
	}
	delete(creds, target)
	return f.save(creds)
}

func (f *File) load() (map[string]credential.Credential, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]credential.Credential{}, nil
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	return Unmarshal(b)
}

func (f *File) save(creds map[string]credential.Credential) error {
	b, err := Marshal(creds)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}
