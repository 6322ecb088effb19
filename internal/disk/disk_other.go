//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package disk

// GetUsage is not implemented on this platform.
func GetUsage(string) (Usage, error) {
	return Usage{}, ErrUnsupported
}
