package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchInfoBeats(t *testing.T) {
	cli := MatchInfo{Source: SourceCommandLine, Priority: 5}
	user := MatchInfo{Source: SourceUserConfig, Priority: 0}
	builtin := MatchInfo{Source: SourceBuiltIn, Priority: 0}

	assert.True(t, cli.Beats(user))
	assert.True(t, user.Beats(builtin))
	assert.False(t, builtin.Beats(cli))

	first := MatchInfo{Source: SourceUserConfig, Priority: 1}
	second := MatchInfo{Source: SourceUserConfig, Priority: 2}
	assert.True(t, first.Beats(second))
	assert.False(t, second.Beats(first))
	assert.False(t, first.Beats(first), "a match never beats itself")
}

func TestKindOf(t *testing.T) {
	perm := &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}
	assert.Equal(t, ErrPermissionDenied, KindOf(perm))
	assert.Equal(t, ErrPermissionDenied, KindOf(fmt.Errorf("wrapped: %w", os.ErrPermission)))
	assert.Equal(t, ErrIO, KindOf(errors.New("disk on fire")))
	assert.Equal(t, ErrIO, KindOf(fs.ErrNotExist))
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "scan /a: permission denied", ScanError{Path: "/a", Kind: ErrPermissionDenied}.Error())
	assert.Equal(t, "scan /a: symlink cycle", ScanError{Path: "/a", Kind: ErrSymlinkCycle}.Error())
	assert.Equal(t, "clean /b: busy", CleanError{Path: "/b", Kind: ErrIO, Message: "busy"}.Error())
	assert.Equal(t, "clean /b: i/o error", CleanError{Path: "/b"}.Error())

	ce := NewCleanError("/c", &fs.PathError{Op: "unlinkat", Path: "/c", Err: fs.ErrPermission})
	assert.Equal(t, ErrPermissionDenied, ce.Kind)
	assert.Contains(t, ce.Message, "unlinkat")
}

func TestCategoryLabels(t *testing.T) {
	want := map[Category]string{
		CategoryDependencies: "Dependencies",
		CategoryBuildOutputs: "Build",
		CategoryCache:        "Cache",
		CategoryIDE:          "IDE",
		CategoryLogs:         "Logs",
		CategoryOther:        "Other",
	}
	assert.Len(t, Categories, len(want))
	for cat, label := range want {
		assert.Equal(t, label, cat.Label())
	}
}

func TestItemJSONIsReadable(t *testing.T) {
	it := CleanItem{
		Path: "/p/node_modules",
		Size: 42,
		Kind: KindDirectory,
		Match: MatchInfo{
			Pattern:  "node_modules",
			Source:   SourceCommandLine,
			Category: CategoryDependencies,
		},
	}
	data, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/p/node_modules","size":42,"kind":"directory",
		"pattern":{"pattern":"node_modules","priority":0,"source":"cli","category":"dependencies"}}`, string(data))

	var back CleanItem
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, it, back)
}

func TestUnmarshalRejectsUnknownNames(t *testing.T) {
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("socket")))
	var s Source
	assert.Error(t, s.UnmarshalText([]byte("env")))
	var c Category
	assert.Error(t, c.UnmarshalText([]byte("music")))
	var e ErrorKind
	assert.Error(t, e.UnmarshalText([]byte("timeout")))
	require.NoError(t, e.UnmarshalText([]byte("symlink_cycle")))
	assert.Equal(t, ErrSymlinkCycle, e)
}

func TestReportHelpers(t *testing.T) {
	r := Report{BytesFreed: 2000, Duration: 2 * time.Second}
	assert.False(t, r.HasErrors())
	assert.InDelta(t, 1000, r.Throughput(), 0.001)

	r.ScanErrors = []ScanError{{Path: "/x"}}
	assert.True(t, r.HasErrors())

	assert.Zero(t, Report{BytesFreed: 10}.Throughput())
	assert.Equal(t, int64(6), TotalSize([]CleanItem{{Size: 1}, {Size: 2}, {Size: 3}}))
}
