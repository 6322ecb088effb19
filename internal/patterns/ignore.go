package patterns

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"
)

// DefaultIgnoreFile is looked up at the scan root.
const DefaultIgnoreFile = ".sweeperignore"

// LoadIgnoreFile attaches the gitignore-style rules in root/name to m.
// A missing file is not an error and returns m unchanged.
func LoadIgnoreFile(m *Matcher, root, name string) (*Matcher, error) {
	if name == "" {
		return m, nil
	}
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, name)
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	return m.WithIgnore(root, gitignore.NewGitIgnoreFromReader(root, f)), nil
}
