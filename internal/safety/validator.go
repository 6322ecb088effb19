package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside allowed roots")
	ErrTraversal      = errors.New("path traversal detected")
	ErrSymlinkEscape  = errors.New("symlink escape detected")
)

// Validator enforces the safety contract for all delete operations.
// It satisfies cleanup.Guard.
type Validator struct {
	AllowedRoots   []string
	ProtectedPaths []string
	// ExactProtected may contain targets but may never be a target.
	ExactProtected []string
}

// NewValidator creates a validator with allowed roots and optional additional protected paths
func NewValidator(allowed []string, extraProtected []string) *Validator {
	return &Validator{
		AllowedRoots:   normalizeRoots(allowed),
		ProtectedPaths: defaultProtected(extraProtected),
		ExactProtected: exactProtected(),
	}
}

// ValidateDeleteTarget is the single-source-of-truth for delete authorization
// Returns typed error on safety violation
func (v *Validator) ValidateDeleteTarget(path string) error {
	// 1. Normalize path to absolute, cleaned form
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	// 2. Block protected paths (system-critical)
	if IsProtectedPath(p, v.ProtectedPaths) {
		return ErrProtectedPath
	}
	for _, e := range v.ExactProtected {
		if p == e {
			return ErrProtectedPath
		}
	}

	// 3. Ensure strictly below an allowed root; the root itself is never a target
	if !IsWithinAllowedRoots(p, v.AllowedRoots) || isRoot(p, v.AllowedRoots) {
		return ErrOutsideAllowed
	}

	// 4. Detect path traversal in raw input
	if DetectTraversal(path) {
		return ErrTraversal
	}

	// 5. Detect symlink escape
	escaped, err := DetectSymlinkEscape(p, v.AllowedRoots)
	if err != nil {
		// A vanished parent means there is nothing left to delete; the
		// delete itself reports it
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}

	return nil
}

// TrustRoot drops the protected entries that contain root, so a root the
// user explicitly forced inside one is still cleanable. Deletes stay
// confined to the allowed roots and "/" is always refused.
func (v *Validator) TrustRoot(root string) {
	root = filepath.Clean(root)
	kept := v.ProtectedPaths[:0]
	for _, prot := range v.ProtectedPaths {
		prot = filepath.Clean(prot)
		if prot != root && hasPathPrefix(root, prot) {
			continue
		}
		kept = append(kept, prot)
	}
	v.ProtectedPaths = kept
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	parts := strings.Split(filepath.ToSlash(raw), "/")
	for _, p := range parts {
		if p == ".." {
			return true
		}
	}
	return false
}

// IsWithinAllowedRoots checks if path is within any allowed root
func IsWithinAllowedRoots(path string, allowedRoots []string) bool {
	p := filepath.Clean(path)
	for _, r := range allowedRoots {
		if hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves the parent directory of cleanAbs and checks
// whether the entry's real location escapes the allowed roots. The final
// element is not resolved: deleting a link removes the link, not its target.
func DetectSymlinkEscape(cleanAbs string, allowedRoots []string) (bool, error) {
	parent, err := filepath.EvalSymlinks(filepath.Dir(cleanAbs))
	if err != nil {
		return false, err
	}
	parentAbs, err := filepath.Abs(parent)
	if err != nil {
		return false, err
	}
	resolvedClean := filepath.Join(parentAbs, filepath.Base(cleanAbs))
	// Only flag as escape if the resolved path is outside allowed roots.
	if !IsWithinAllowedRoots(resolvedClean, allowedRoots) {
		return true, nil
	}
	return false, nil
}

// IsProtectedPath checks if path matches protected system paths
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		prot = filepath.Clean(prot)
		if p == prot || hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

// hasPathPrefix checks if path has the given prefix
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return path == "/"
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

func isRoot(path string, roots []string) bool {
	for _, r := range roots {
		if path == filepath.Clean(r) {
			return true
		}
	}
	return false
}

// normalizeRoots converts slice of roots to absolute, cleaned paths with
// symlinks resolved, matching the paths the scanner reports
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

// defaultProtected returns the base set of protected paths plus any extras
func defaultProtected(extra []string) []string {
	base := []string{
		"/",
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
		"/proc",
		"/sys",
		"/dev",
		"/System",
		"/Library",
	}
	return append(base, extra...)
}

// exactProtected lists directories that hold clean targets but must never
// be removed themselves.
func exactProtected() []string {
	var out []string
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Clean(home))
	}
	if cfg, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Clean(cfg))
	}
	return out
}
