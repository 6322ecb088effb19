//go:build linux || darwin || freebsd || netbsd || openbsd

package disk

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// GetUsage returns total and available bytes for the filesystem holding path.
func GetUsage(path string) (Usage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Usage{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(stat.Bsize)
	return Usage{
		TotalBytes: uint64(stat.Blocks) * bsize,
		FreeBytes:  uint64(stat.Bavail) * bsize,
	}, nil
}
