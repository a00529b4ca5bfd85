package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files under a fresh temp root and returns a Sandbox for it.
func writeTree(t *testing.T, files map[string]string) *Sandbox {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	sb, err := NewSandbox(root)
	require.NoError(t, err)
	return sb
}
