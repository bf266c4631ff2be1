package files

import (
	"os"
	"path/filepath"
)

// FindUp walks up from dir looking for an entry called name, and returns its path, or "" if none is found.
// Unreadable directories are skipped.
func FindUp(name, dir string) string {
	curDir := dir
	for {
		entries, err := os.ReadDir(curDir)
		if err == nil {
			for _, e := range entries {
				if name == e.Name() {
					return filepath.Join(curDir, name)
				}
			}
		}
		newDir := filepath.Dir(curDir)
		if newDir == curDir {
			return ""
		}
		curDir = newDir
	}
}

// FindRoot returns the first directory containing marker, searching up from each of the start dirs in order.
// If nothing is found, fallback is returned.
func FindRoot(marker, fallback string, startDirs ...string) string {
	for _, d := range startDirs {
		if d == "" {
			continue
		}
		if p := FindUp(marker, d); p != "" {
			return filepath.Dir(p)
		}
	}
	return fallback
}
