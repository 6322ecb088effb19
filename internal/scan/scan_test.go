package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweeper/internal/models"
	"sweeper/internal/patterns"
)

// tempRoot returns a temp dir with symlinks resolved, matching the paths
// the scanner reports.
func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

func writeFile(t *testing.T, root, rel string, size int) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, make([]byte, size), 0o644))
}

func matcherFor(t *testing.T, dirs, files, exclude []string) *patterns.Matcher {
	t.Helper()
	m, err := patterns.New(patterns.DefaultCatalog(), patterns.Set{
		Source:      models.SourceUserConfig,
		Directories: dirs,
		Files:       files,
		Exclude:     exclude,
	})
	require.NoError(t, err)
	return m
}

func paths(items []models.CleanItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Path)
	}
	return out
}

func TestScanScenario(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "a/node_modules/x.js", 10)
	writeFile(t, root, "a/dist/y.js", 20)
	writeFile(t, root, "a/.git/config", 5)

	m := matcherFor(t, []string{"node_modules", "dist"}, nil, []string{".git"})
	res, err := Scan(root, m, Options{MaxDepth: 10})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Empty(t, res.Errors)

	assert.Equal(t, filepath.Join(root, "a", "dist"), res.Items[0].Path)
	assert.Equal(t, int64(20), res.Items[0].Size)
	assert.Equal(t, models.KindDirectory, res.Items[0].Kind)

	assert.Equal(t, filepath.Join(root, "a", "node_modules"), res.Items[1].Path)
	assert.Equal(t, int64(10), res.Items[1].Size)
	assert.Equal(t, "node_modules", res.Items[1].Match.Pattern)

	for _, p := range paths(res.Items) {
		assert.NotContains(t, p, ".git")
	}
}

func TestScanAggregatesWholeSubtree(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "app/node_modules/a/index.js", 100)
	writeFile(t, root, "app/node_modules/a/lib/util.js", 250)
	writeFile(t, root, "app/node_modules/b/dist/bundle.js", 1000)
	writeFile(t, root, "app/node_modules/.bin/tool", 7)
	writeFile(t, root, "app/src/main.js", 999)

	m := matcherFor(t, []string{"node_modules", "dist"}, nil, nil)
	res, err := Scan(root, m, Options{})
	require.NoError(t, err)

	// the nested dist is inside a matched directory and is not classified
	require.Len(t, res.Items, 1)
	assert.Equal(t, filepath.Join(root, "app", "node_modules"), res.Items[0].Path)
	assert.Equal(t, int64(100+250+1000+7), res.Items[0].Size)
}

func TestScanSizeIsSegmentWise(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "build/out.bin", 40)
	// shares the "build" string prefix but is a sibling, not a child
	writeFile(t, root, "build-tools/keep.bin", 500)

	m := matcherFor(t, []string{"build"}, nil, nil)
	res, err := Scan(root, m, Options{})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(40), res.Items[0].Size)
}

func TestScanFilesAndSymlinks(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "logs/app.log", 33)
	writeFile(t, root, "logs/readme.txt", 1)
	require.NoError(t, os.Symlink(filepath.Join(root, "logs", "app.log"), filepath.Join(root, "latest.log")))

	m := matcherFor(t, nil, []string{"*.log"}, nil)
	res, err := Scan(root, m, Options{})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	byPath := map[string]models.CleanItem{}
	for _, it := range res.Items {
		byPath[it.Path] = it
	}

	file := byPath[filepath.Join(root, "logs", "app.log")]
	assert.Equal(t, models.KindFile, file.Kind)
	assert.Equal(t, int64(33), file.Size)

	link := byPath[filepath.Join(root, "latest.log")]
	assert.Equal(t, models.KindSymlink, link.Kind)
}

func TestScanMaxDepth(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "l1/l2/l3/node_modules/x.js", 1)
	writeFile(t, root, "l1/node_modules/deep/er/still/x.js", 8)

	m := matcherFor(t, []string{"node_modules"}, nil, nil)

	res, err := Scan(root, m, Options{MaxDepth: 2})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, filepath.Join(root, "l1", "node_modules"), res.Items[0].Path)
	// bytes below the depth limit still count toward a matched directory
	assert.Equal(t, int64(8), res.Items[0].Size)

	res, err = Scan(root, m, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

func TestScanExcludedDirectoryIsNotDescended(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "vendor/node_modules/x.js", 1)
	writeFile(t, root, "node_modules/y.js", 2)

	m := matcherFor(t, []string{"node_modules"}, nil, []string{"vendor"})
	res, err := Scan(root, m, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "node_modules")}, paths(res.Items))
}

func TestScanSymlinkCycleIsReportedAndSkipped(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "a/b/dist/file.js", 3)
	require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a", "b", "loop")))

	m := matcherFor(t, []string{"dist"}, nil, nil)
	res, err := Scan(root, m, Options{FollowSymlinks: true})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "a", "b", "dist")}, paths(res.Items))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.ErrSymlinkCycle, res.Errors[0].Kind)
	assert.Equal(t, filepath.Join(root, "a", "b", "loop"), res.Errors[0].Path)
}

func TestScanFollowsDirectorySymlinks(t *testing.T) {
	root := tempRoot(t)
	other := tempRoot(t)
	writeFile(t, other, "pkg/node_modules/x.js", 4)
	require.NoError(t, os.Symlink(filepath.Join(other, "pkg"), filepath.Join(root, "linked")))

	m := matcherFor(t, []string{"node_modules"}, nil, nil)

	res, err := Scan(root, m, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	res, err = Scan(root, m, Options{FollowSymlinks: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, filepath.Join(root, "linked", "node_modules"), res.Items[0].Path)
	assert.Equal(t, int64(4), res.Items[0].Size)
}

func TestScanPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := tempRoot(t)
	writeFile(t, root, "locked/dist/a.js", 1)
	writeFile(t, root, "open/dist/b.js", 2)

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	m := matcherFor(t, []string{"dist"}, nil, nil)
	res, err := Scan(root, m, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "open", "dist")}, paths(res.Items))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, locked, res.Errors[0].Path)
	assert.Equal(t, models.ErrPermissionDenied, res.Errors[0].Kind)
}

func TestScanResultIndependentOfWorkerCount(t *testing.T) {
	root := tempRoot(t)
	var want int64
	for d := 0; d < 20; d++ {
		for f := 0; f < 15; f++ {
			size := d*100 + f + 1
			writeFile(t, root, fmt.Sprintf("p%02d/sub/build/f%02d.o", d, f), size)
			want += int64(size)
		}
		writeFile(t, root, fmt.Sprintf("p%02d/src/main.c", d), 50)
	}

	m := matcherFor(t, []string{"build"}, nil, nil)
	var baseline []models.CleanItem
	for _, workers := range []int{1, 4, 16} {
		res, err := Scan(root, m, Options{Workers: workers})
		require.NoError(t, err)
		assert.Len(t, res.Items, 20)
		assert.Equal(t, want, models.TotalSize(res.Items), "workers=%d", workers)
		if baseline == nil {
			baseline = res.Items
			continue
		}
		assert.Equal(t, baseline, res.Items, "workers=%d", workers)
	}
}

func TestScanRootValidation(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "file.txt", 1)
	m := matcherFor(t, []string{"dist"}, nil, nil)

	_, err := Scan(filepath.Join(root, "file.txt"), m, Options{})
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = Scan(filepath.Join(root, "missing"), m, Options{})
	assert.Error(t, err)
}

func TestScanCountsEntries(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "a/b.txt", 1)
	writeFile(t, root, "a/c.txt", 1)
	writeFile(t, root, "d.txt", 1)

	res, err := Scan(root, matcherFor(t, []string{"nothing"}, nil, nil), Options{})
	require.NoError(t, err)
	// a, a/b.txt, a/c.txt, d.txt
	assert.Equal(t, int64(4), res.EntriesScanned)
	assert.Equal(t, root, res.Root)
}

type countingSink struct {
	n int64
}

func (c *countingSink) Increment(n int64) { c.n += n }
func (c *countingSink) SetMessage(string) {}
func (c *countingSink) Finish()           {}

func TestScanReportsProgressPerItem(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "x/dist/a", 1)
	writeFile(t, root, "y/dist/a", 1)
	writeFile(t, root, "z.log", 1)

	sink := &countingSink{}
	_, err := Scan(root, matcherFor(t, []string{"dist"}, []string{"*.log"}, nil), Options{Workers: 1, Progress: sink})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sink.n)
}
