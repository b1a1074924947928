// Package fsutil provides filesystem discovery helpers for pipeline
// definition loading.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension walks rootPath and collects every file whose name
// ends with extension ("hcl" and ".hcl" are equivalent). Hidden
// directories are not descended into. The result is sorted so callers
// see a stable order regardless of filesystem iteration.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
