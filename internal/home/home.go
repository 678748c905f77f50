// Package home locates papermd's per-user directory: the config file and the
// default root for converted documents.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvVar overrides the home directory when no explicit path is given.
const EnvVar = "PAPERMD_HOME"

const (
	dirName     = ".papermd"
	outputsName = "outputs"
	configName  = "config.yaml"
)

// Dir is a resolved papermd home. Nothing is created until Ensure is called.
type Dir struct {
	root string
}

// New resolves the home directory: path if set, then $PAPERMD_HOME, then
// ~/.papermd. Relative paths are made absolute.
func New(path string) (*Dir, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate papermd home (set %s or --home): %w", EnvVar, err)
		}
		path = filepath.Join(userHome, dirName)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid home directory %q: %w", path, err)
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) Path() string        { return d.root }
func (d *Dir) OutputsPath() string { return filepath.Join(d.root, outputsName) }
func (d *Dir) ConfigPath() string  { return filepath.Join(d.root, configName) }

// ConfigExists reports whether config.yaml is present as a regular file.
func (d *Dir) ConfigExists() bool {
	st, err := os.Stat(d.ConfigPath())
	return err == nil && st.Mode().IsRegular()
}

// Ensure creates the home and its outputs directory. It is idempotent.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.OutputsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create papermd home: %w", err)
	}
	return nil
}

// OutputRoot picks where converted documents go: the --out flag, then the
// configured output_dir, then <home>/outputs. The chosen directory is created.
func (d *Dir) OutputRoot(flag, configured string) (string, error) {
	root := flag
	if root == "" {
		root = configured
	}
	if root == "" {
		if err := d.Ensure(); err != nil {
			return "", err
		}
		return d.OutputsPath(), nil
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output root: %w", err)
	}
	return root, nil
}
