// Package filex holds the filesystem helpers behind the save directory:
// directory setup, save-name sanitising and crash-safe file replacement.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// TempSuffix is appended to a path while its replacement is being written.
const TempSuffix = ".tmp"

// EnsureSubdDir creates parent/dirName (parent defaults to the working
// directory) and returns its absolute path.
func EnsureSubdDir(parent, dirName string) (string, error) {
	if parent == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		parent = cwd
	}

	dir, err := filepath.Abs(filepath.Join(parent, dirName))
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dirName, err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SanitizeName maps a user-chosen save name to a file name stem. Letters,
// digits, space, '-' and '_' are kept, everything else becomes '_'.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// WriteAtomic replaces path with whatever fn writes. fn receives a fresh file
// at path+TempSuffix in the same directory; only after fn succeeds and the file
// is synced and closed is it renamed over path. On failure the original path is
// untouched and the temp file is removed. Errors from fn are returned as is.
func WriteAtomic(path string, fn func(f *os.File) error) (err error) {
	tmpPath := path + TempSuffix

	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}

	closed := false
	defer func() {
		if err != nil {
			if !closed {
				_ = f.Close()
			}
			_ = os.Remove(tmpPath)
		}
	}()

	if err = fn(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	closed = true
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}

	_ = syncDir(filepath.Dir(path))
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
