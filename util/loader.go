package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File represents a file read from a directory.
type File struct {
	// Path is the path to the file.
	Path string
	// Data is the raw bytes of the file.
	Data []byte
}

// LoadDirectoryFiles reads every regular file in dir whose extension matches
// one of exts (case-insensitive, with the leading dot).
//
// Arguments:
// - dir: Directory path to scan. Subdirectories are skipped.
// - exts: Accepted extensions, e.g. ".json".
//
// Returns:
// - []File: The matching files sorted by file name.
// - error: Error if the directory or a file cannot be read.
func LoadDirectoryFiles(dir string, exts ...string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	accept := make(map[string]bool, len(exts))
	for _, ext := range exts {
		accept[strings.ToLower(ext)] = true
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !accept[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, readErr
		}
		files = append(files, File{Path: path, Data: data})
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i].Path) < filepath.Base(files[j].Path)
	})

	return files, nil
}
