package storage

import "os"

// EnsureDir creates path and any missing parents, readable only by the owner.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
