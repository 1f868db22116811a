package pathglob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WineChord/fastcopy/errs"
	"github.com/WineChord/fastcopy/orchestrator"
)

// memFS is an in-memory FS fake: a fixed table of paths, some directories,
// with glob support limited to what the tests need.
type memFS struct {
	dirs  map[string]bool
	files map[string]bool // file path -> exists as regular file
}

func (m *memFS) Glob(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		if m.dirs[pattern] || m.files[pattern] {
			return []string{pattern}, nil
		}
		return nil, nil
	}
	var out []string
	for p := range m.files {
		if ok, _ := filepath.Match(pattern, p); ok {
			out = append(out, p)
		}
	}
	for p := range m.dirs {
		if ok, _ := filepath.Match(pattern, p); ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memFS) Stat(p string) (exists, isDir bool, err error) {
	if m.dirs[p] {
		return true, true, nil
	}
	if m.files[p] {
		return true, false, nil
	}
	return false, false, nil
}

func (m *memFS) ReadDirRecursive(dir string) ([]string, error) {
	prefix := dir + "/"
	var out []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			out = append(out, strings.TrimPrefix(p, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func TestExpandSingleFileToNewDestination(t *testing.T) {
	fs := &memFS{files: map[string]bool{"nn:1/src/f": true}}
	reqs, err := Expand(fs, []string{"nn:1/src/f"}, "nn:1/dst/f")
	require.NoError(t, err)
	assert.Equal(t, []orchestrator.CopyRequest{{Src: "nn:1/src/f", Dst: "nn:1/dst/f"}}, reqs)
}

func TestExpandSingleFileIntoExistingDirectory(t *testing.T) {
	fs := &memFS{
		files: map[string]bool{"nn:1/src/f": true},
		dirs:  map[string]bool{"nn:1/dst": true},
	}
	reqs, err := Expand(fs, []string{"nn:1/src/f"}, "nn:1/dst")
	require.NoError(t, err)
	assert.Equal(t, []orchestrator.CopyRequest{{Src: "nn:1/src/f", Dst: "nn:1/dst/f"}}, reqs)
}

func TestExpandDirectoryRecursesIntoNewRoot(t *testing.T) {
	fs := &memFS{
		dirs: map[string]bool{"nn:1/src": true},
		files: map[string]bool{
			"nn:1/src/a": true,
			"nn:1/src/sub/b": true,
		},
	}
	reqs, err := Expand(fs, []string{"nn:1/src"}, "nn:1/dst")
	require.NoError(t, err)

	want := []orchestrator.CopyRequest{
		{Src: "nn:1/src/a", Dst: "nn:1/dst/a"},
		{Src: "nn:1/src/sub/b", Dst: "nn:1/dst/sub/b"},
	}
	assert.ElementsMatch(t, want, reqs)
}

func TestExpandEmptyGlobIsFatal(t *testing.T) {
	fs := &memFS{}
	_, err := Expand(fs, []string{"nn:1/nothing/*"}, "nn:1/dst")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrEmptyGlob)
}

func TestExpandMultipleSourcesRequireExistingDestinationDirectory(t *testing.T) {
	fs := &memFS{files: map[string]bool{"nn:1/src/a": true, "nn:1/src/b": true}}
	_, err := Expand(fs, []string{"nn:1/src/a", "nn:1/src/b"}, "nn:1/dst")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDestinationTypeMismatch)
}
