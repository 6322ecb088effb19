//go:build !windows

package fsops

import "os"

// unlink(2) removes the link entry whether it points at a file or a directory.
func removeSymlink(path string) error {
	return os.Remove(path)
}
