// Package safeio confines file writes to a single output directory.
package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var ErrOutsideRoot = errors.New("safeio: path escapes root")

// Dir writes files below a fixed root directory.
type Dir struct {
	absRoot string // absolute root with symlinks resolved
}

// OpenDir creates root if needed and locks all future writes to it.
func OpenDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("safeio: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &Dir{absRoot: abs}, nil
}

func (d *Dir) Root() string {
	if d == nil {
		return ""
	}
	return d.absRoot
}

// WriteFile stores data at name relative to the root and returns the
// absolute path written. The file is replaced atomically.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	p, err := d.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	// Symlinked subdirectories could still point elsewhere.
	parent, err := filepath.EvalSymlinks(filepath.Dir(p))
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(parent, d.absRoot) {
		return "", fmt.Errorf("%w (root=%s, path=%s)", ErrOutsideRoot, d.absRoot, parent)
	}
	p = filepath.Join(parent, filepath.Base(p))

	tmp, err := os.CreateTemp(parent, ".tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", err
	}
	return p, nil
}

// ReadFile reads a file relative to the root.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	p, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return nil, err
	}
	if !hasPathPrefix(resolved, d.absRoot) {
		return nil, fmt.Errorf("%w (root=%s, path=%s)", ErrOutsideRoot, d.absRoot, resolved)
	}
	return os.ReadFile(resolved)
}

func (d *Dir) resolve(name string) (string, error) {
	if d == nil {
		return "", errors.New("safeio: directory not configured")
	}
	if name == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(name)
	if clean == "." {
		return "", errors.New("safeio: path names the root")
	}
	if filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "") {
		return "", fmt.Errorf("%w: absolute path %q", ErrOutsideRoot, name)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return filepath.Join(d.absRoot, clean), nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path+sep, root)
}
