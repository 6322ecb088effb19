package fsops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSDeleterRemoveLinkKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "inner"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "inner", "f"), []byte("x"), 0o644))

	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	require.NoError(t, OSDeleter{}.RemoveLink(link))

	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(target, "inner", "f"))
	assert.NoError(t, err)
}

func TestOSDeleterRemoveAndRemoveAll(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	tree := filepath.Join(dir, "node_modules", "x", "y")
	require.NoError(t, os.MkdirAll(tree, 0o755))

	d := OSDeleter{}
	require.NoError(t, d.Remove(file))
	require.NoError(t, d.RemoveAll(filepath.Join(dir, "node_modules")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, d.RemoveAll(filepath.Join(dir, "node_modules")), fs.ErrNotExist)
	assert.ErrorIs(t, d.Remove(file), fs.ErrNotExist)
}

func TestFakeDeleterRecordsAndFails(t *testing.T) {
	boom := errors.New("boom")
	f := &FakeDeleter{Fail: map[string]error{"/bad": boom}}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Remove("/ok")
		}()
	}
	wg.Wait()

	assert.NoError(t, f.RemoveAll("/dir"))
	assert.NoError(t, f.RemoveLink("/link"))
	assert.ErrorIs(t, f.Remove("/bad"), boom)

	calls := f.Snapshot()
	assert.Len(t, calls, 13)
	assert.Contains(t, calls, "rmall:/dir")
	assert.Contains(t, calls, "rmlink:/link")
	assert.Contains(t, calls, "rm:/bad")
}
