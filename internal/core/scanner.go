package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// tabularDelimiters maps lowercase extensions of delimited formats to their
// field separator. Everything else is opaque.
var tabularDelimiters = map[string]rune{
	".csv": ',',
	".tsv": '\t',
}

// IsTabularName reports whether a file name has a delimited-text extension.
func IsTabularName(name string) bool {
	_, ok := tabularDelimiters[strings.ToLower(filepath.Ext(name))]
	return ok
}

func delimiterFor(name string) rune {
	if d, ok := tabularDelimiters[strings.ToLower(filepath.Ext(name))]; ok {
		return d
	}
	return ','
}

// Scan enumerates regular files under the data root, sorted by name.
// Placeholder files (.gitkeep) and dotfiles are skipped. A missing root
// is not an error; it yields no files.
func (s *Sandbox) Scan(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo

	// Walk the real root so a symlinked data root is still descended into.
	walkRoot := s.root
	if real, err := filepath.EvalSymlinks(s.root); err == nil {
		walkRoot = real
	}

	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			// Unreadable subtrees are skipped rather than failing the scan.
			slog.Warn("scan: skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != walkRoot && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || name == ".gitkeep" || strings.HasPrefix(name, ".") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("scan: stat failed", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return fmt.Errorf("relative name for %s: %w", path, err)
		}

		files = append(files, FileInfo{
			Name:         filepath.ToSlash(rel),
			Path:         filepath.Join(s.root, rel),
			SizeBytes:    info.Size(),
			LastModified: info.ModTime(),
			IsTabular:    IsTabularName(name),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}
