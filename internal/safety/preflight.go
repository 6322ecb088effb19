package safety

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-git/v5"

	"sweeper/internal/disk"
)

var (
	ErrInsideGitRepo       = errors.New("path is inside a git repository")
	ErrInsufficientSpace   = errors.New("insufficient free disk space")
	ErrInsideProtectedPath = errors.New("path is inside a protected directory")
)

// GB is the unit of safety.min_free_space_gb.
const GB = 1_000_000_000

// PreflightOptions selects the checks Preflight runs.
type PreflightOptions struct {
	CheckGit     bool
	MinFreeBytes uint64
	// Protected is added to the default protected list.
	Protected []string
}

// Preflight validates a clean root before anything is scanned. It returns
// the first violation found, wrapping one of ErrProtectedPath,
// ErrInsideProtectedPath, ErrInsideGitRepo or ErrInsufficientSpace.
// ErrProtectedPath means the root is itself a protected directory.
func Preflight(root string, opts PreflightOptions) error {
	p, err := NormalizePath(root)
	if err != nil {
		return err
	}
	protected := defaultProtected(opts.Protected)
	if isRoot(p, protected) {
		return fmt.Errorf("%w: %s", ErrProtectedPath, p)
	}
	if IsProtectedPath(p, protected) {
		return fmt.Errorf("%w: %s", ErrInsideProtectedPath, p)
	}

	if opts.CheckGit {
		repoRoot, found, err := findRepository(p)
		if err != nil {
			return fmt.Errorf("git check %s: %w", p, err)
		}
		if found {
			return fmt.Errorf("%w: %s (use --no-git-check to override)", ErrInsideGitRepo, repoRoot)
		}
	}

	if opts.MinFreeBytes > 0 {
		free, err := disk.FreeBytes(p)
		// an unreadable filesystem does not block the run
		if err == nil && free < opts.MinFreeBytes {
			return fmt.Errorf("%w: %s free, need at least %s",
				ErrInsufficientSpace, humanize.Bytes(free), humanize.Bytes(opts.MinFreeBytes))
		}
	}
	return nil
}

// findRepository looks for a repository at path or any parent.
func findRepository(path string) (string, bool, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no worktree
		return path, true, nil
	}
	return wt.Filesystem.Root(), true, nil
}
