package patterns

import "sweeper/internal/models"

// Entry is one default pattern with its display category.
type Entry struct {
	Glob     string
	Category models.Category
}

// Catalog is the default pattern table. It is an ordinary value: callers
// build it once with DefaultCatalog and hand it to New.
type Catalog struct {
	Directories []Entry
	Files       []Entry
	Exclude     []string
}

// Set is the pattern lists contributed by one source.
type Set struct {
	Source      models.Source
	Directories []string
	Files       []string
	Exclude     []string
}

// Empty reports whether the set contributes no patterns.
func (s Set) Empty() bool {
	return len(s.Directories) == 0 && len(s.Files) == 0 && len(s.Exclude) == 0
}

// DefaultCatalog returns the built-in patterns.
func DefaultCatalog() Catalog {
	entries := func(cat models.Category, globs ...string) []Entry {
		out := make([]Entry, 0, len(globs))
		for _, g := range globs {
			out = append(out, Entry{Glob: g, Category: cat})
		}
		return out
	}

	var c Catalog
	c.Directories = append(c.Directories, entries(models.CategoryDependencies,
		"node_modules", "bower_components", "jspm_packages", ".venv", "venv", ".tox")...)
	c.Directories = append(c.Directories, entries(models.CategoryBuildOutputs,
		"dist", "build", "out", "target", ".next", ".nuxt", ".svelte-kit", ".output")...)
	c.Directories = append(c.Directories, entries(models.CategoryCache,
		".cache", ".turbo", ".parcel-cache", "__pycache__", ".pytest_cache", ".mypy_cache",
		".ruff_cache", ".gradle", "coverage", ".nyc_output")...)
	c.Directories = append(c.Directories, entries(models.CategoryIDE, ".idea", ".vs")...)

	c.Files = append(c.Files, entries(models.CategoryLogs, "*.log", "npm-debug.log*", "yarn-error.log*")...)
	c.Files = append(c.Files, entries(models.CategoryCache, "*.pyc", "*.tsbuildinfo", ".eslintcache")...)
	c.Files = append(c.Files, entries(models.CategoryOther, ".DS_Store", "Thumbs.db")...)

	c.Exclude = []string{".git", ".hg", ".svn"}
	return c
}

// CategoryOf returns the category of a known glob, or CategoryOther.
func (c Catalog) CategoryOf(glob string) models.Category {
	for _, e := range c.Directories {
		if e.Glob == glob {
			return e.Category
		}
	}
	for _, e := range c.Files {
		if e.Glob == glob {
			return e.Category
		}
	}
	return models.CategoryOther
}

// Set returns the catalog as the BuiltIn pattern set.
func (c Catalog) Set() Set {
	s := Set{Source: models.SourceBuiltIn}
	for _, e := range c.Directories {
		s.Directories = append(s.Directories, e.Glob)
	}
	for _, e := range c.Files {
		s.Files = append(s.Files, e.Glob)
	}
	s.Exclude = append(s.Exclude, c.Exclude...)
	return s
}
