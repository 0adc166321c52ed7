// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindArchives lists the files in dir whose names start with prefix and
// end with ext, sorted lexically so callers see a deterministic order.
// A missing directory yields an empty result, not an error; the caller
// decides whether emptiness is fatal.
func FindArchives(dir, prefix, ext string) ([]string, error) {
	if ext == "" {
		panic("ext must not be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			files = append(files, filepath.Join(dir, name))
		}
	}

	sort.Strings(files)
	return files, nil
}
