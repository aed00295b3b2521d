package taskstore

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsage returns the total size in bytes of paths. Each path may be a file
// or a directory, summed recursively. Missing paths count as zero.
func DiskUsage(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	return total, nil
}

// SQLiteFiles lists the files a SQLite database at path may occupy in WAL mode.
func SQLiteFiles(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path, path + "-wal", path + "-shm"}
}
