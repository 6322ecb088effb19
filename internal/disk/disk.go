// Package disk reports filesystem capacity for the free-space pre-flight
// check and the statistics block.
package disk

import "errors"

// ErrUnsupported is returned on platforms without statfs.
var ErrUnsupported = errors.New("disk usage not supported on this platform")

// Usage is a filesystem capacity snapshot.
type Usage struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// UsedPercent returns the share of the filesystem in use.
func (u Usage) UsedPercent() float64 {
	if u.TotalBytes == 0 {
		return 0
	}
	return float64(u.TotalBytes-u.FreeBytes) / float64(u.TotalBytes) * 100.0
}

// FreeBytes returns the bytes available to an unprivileged user on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	u, err := GetUsage(path)
	if err != nil {
		return 0, err
	}
	return u.FreeBytes, nil
}
