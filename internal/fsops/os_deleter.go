package fsops

import "os"

// OSDeleter implements Deleter using real os package calls
type OSDeleter struct{}

func (OSDeleter) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll removes path and everything below it. Unlike os.RemoveAll it
// reports a missing path as fs.ErrNotExist.
func (OSDeleter) RemoveAll(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

func (OSDeleter) RemoveLink(path string) error {
	return removeSymlink(path)
}
