//go:build windows

package fsops

import (
	"os"
	"syscall"
)

// Directory links on Windows are directory entries and need RemoveDirectory;
// DeleteFile fails on them.
func removeSymlink(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return os.Remove(path)
	}
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return &os.PathError{Op: "remove", Path: path, Err: err}
	}
	if err := syscall.RemoveDirectory(p); err != nil {
		return &os.PathError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
