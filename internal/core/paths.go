package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox confines all file access to one data root.
// It holds no mutable state and is safe for concurrent use.
type Sandbox struct {
	root string // absolute, cleaned
}

// NewSandbox creates a Sandbox for root. The root does not have to exist;
// scanning a missing root yields no files.
func NewSandbox(root string) (*Sandbox, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("data root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data root %q: %w", root, err)
	}
	return &Sandbox{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute data root.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a relative reference to an absolute path of a regular file
// inside the data root. It performs no reads of file contents.
//
// Absolute references and references that leave the root (lexically or
// through a symlink) fail with ErrForbidden. References that do not name an
// existing regular file fail with ErrNotFound.
func (s *Sandbox) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, `\`) {
		return "", fmt.Errorf("%w: %s", ErrForbidden, ref)
	}

	candidate := filepath.Join(s.root, filepath.FromSlash(ref))
	if !s.contains(candidate) {
		return "", fmt.Errorf("%w: %s", ErrForbidden, ref)
	}

	// Follow symlinks so a link inside the root cannot point outside it.
	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	realRoot, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if !within(realRoot, real) {
		return "", fmt.Errorf("%w: %s", ErrForbidden, ref)
	}

	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrNotFound, ref)
	}

	return candidate, nil
}

// RelName returns the slash-separated name of path relative to the root.
func (s *Sandbox) RelName(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (s *Sandbox) contains(path string) bool {
	return within(s.root, path)
}

// within reports whether path equals root or lies beneath it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
