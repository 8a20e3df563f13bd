package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// DiskUsageBytes sums the on-disk size of the given paths for status
// reporting. Files count their own size; directories are walked recursively.
// Missing paths contribute nothing, and files that vanish mid-walk are
// tolerated since index rebuilds swap snapshot directories underneath.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
