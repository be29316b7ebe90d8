// Package filex contains filesystem helpers for the client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold path, so a SQLite
// file can be opened there.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// LocalPath strips an optional file:// scheme from a local reference.
func LocalPath(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "file://")
}

// Ext returns the lowercase extension of ref without the dot, ignoring any
// query string or fragment.
func Ext(ref string) string {
	ref = LocalPath(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ext := filepath.Ext(ref)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
