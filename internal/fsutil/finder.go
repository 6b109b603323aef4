// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// FindFiles recursively lists every regular file under rootPath, skipping any
// directory whose base name is in ignoreDirs. The result is sorted and holds
// paths joined onto rootPath.
func FindFiles(rootPath string, ignoreDirs ...string) ([]string, error) {
	ignored := make(map[string]struct{}, len(ignoreDirs))
	for _, d := range ignoreDirs {
		ignored[d] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := ignored[d.Name()]; skip && path != rootPath {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
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
