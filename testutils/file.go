package testutils

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Locate yields every file under root whose base name matches the glob pattern, walking
// directories depth first in lexical order. Each iteration walks the tree again. Unreadable
// directories are skipped. A malformed pattern matches nothing.
func Locate(pattern, root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return
		}
		//nolint:errcheck
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			// pattern is known to be well formed
			if matched, _ := filepath.Match(pattern, d.Name()); matched && !yield(path) {
				return fs.SkipAll
			}
			return nil
		})
	}
}
