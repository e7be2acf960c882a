package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	dlerrors "github.com/otherjamesbrown/delib-cli/pkg/errors"
)

// ScanSessionFiles returns the session export files at the given path.
// A path naming a single .json file is accepted as-is; a directory yields
// the .json files directly under it, sorted by name. Discovering zero
// usable files is the run's only fatal condition.
func ScanSessionFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !isSessionFile(path) {
			return nil, fmt.Errorf("%s is not a session export: %w", path, dlerrors.ErrNoInput)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return []string{abs}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isSessionFile(entry.Name()) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no session files in %s: %w", path, dlerrors.ErrNoInput)
	}

	sort.Strings(files)
	return files, nil
}

// ScanSessionFolders returns the subdirectories of path that contain at
// least one session export, sorted by name. Used by the cross-room rollup
// variant, which aggregates each folder's files into one report pair.
func ScanSessionFolders(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(path, entry.Name())
		if _, err := ScanSessionFiles(sub); err != nil {
			continue
		}
		abs, err := filepath.Abs(sub)
		if err != nil {
			return nil, err
		}
		folders = append(folders, abs)
	}

	if len(folders) == 0 {
		return nil, fmt.Errorf("no folders with session files in %s: %w", path, dlerrors.ErrNoInput)
	}

	sort.Strings(folders)
	return folders, nil
}

// SessionName derives a session's display name from its file path:
// the base name without the .json extension.
func SessionName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// isSessionFile reports whether a filename looks like a session export.
func isSessionFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
