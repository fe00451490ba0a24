// Package probe computes recursive directory sizes. It is the hottest path
// in the engine, so it walks with fs.DirEntry to avoid a stat per entry and
// swallows every typed filesystem failure: a permission wall or a file
// vanishing mid-walk skips that entry and the walk continues.
package probe

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Size returns the total byte size of all regular files under path without
// following symbolic links. For a single file it returns that file's size.
// Unreadable subtrees contribute zero.
func Size(path string) int64 {
	fi, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if !fi.IsDir() {
		if fi.Mode()&fs.ModeSymlink != 0 {
			return 0
		}
		return fi.Size()
	}

	var total int64
	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission denied or vanished mid-walk. Skip and continue.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}

// DirExists reports whether path exists and is a directory, without
// following a dangling symlink into an error.
func DirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
