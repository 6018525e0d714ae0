// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// hidden reports whether a directory below the walk root should be skipped.
func hidden(root, path string, d fs.DirEntry) bool {
	return path != root && d.IsDir() && strings.HasPrefix(d.Name(), ".")
}

// FindFilesByExtension recursively searches root for files whose extension
// matches ext, ignoring case. Hidden directories are skipped. The result is
// sorted so that loading order does not depend on the walk.
func FindFilesByExtension(root, ext string) ([]string, error) {
	if ext == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if hidden(root, path, d) {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ext) {
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

// Dirs returns root and every non-hidden directory below it.
func Dirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if hidden(root, path, d) {
			return filepath.SkipDir
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}
