// Package pathglob implements the directory/request expansion from
// spec.md §4.8: turning a list of source path patterns and one
// destination into the concrete (src, dst) pairs orchestrator.Copy
// consumes.
package pathglob

import (
	"path"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/WineChord/fastcopy/errs"
	"github.com/WineChord/fastcopy/orchestrator"
)

// FS abstracts the filesystem operations expansion needs, so tests can
// supply an in-memory tree instead of touching disk.
type FS interface {
	// Glob expands pattern the way filepath.Glob does.
	Glob(pattern string) ([]string, error)
	// Stat reports whether p exists and, if so, whether it's a directory.
	Stat(p string) (exists, isDir bool, err error)
	// ReadDirRecursive lists every regular file under dir, as paths
	// relative to dir, in a deterministic order.
	ReadDirRecursive(dir string) ([]string, error)
}

// Expand implements spec.md §4.8 verbatim: glob each source, pair files
// directly, recurse into directories, and require the destination be an
// existing directory whenever more than one source path results.
func Expand(fs FS, sources []string, dest string) ([]orchestrator.CopyRequest, error) {
	var expanded []string
	for _, pattern := range sources {
		matches, err := fs.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.Wrapf(errs.ErrEmptyGlob, "%s", pattern)
		}
		expanded = append(expanded, matches...)
	}
	sort.Strings(expanded)

	destExists, destIsDir, err := fs.Stat(dest)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", dest)
	}

	if len(expanded) > 1 && (!destExists || !destIsDir) {
		return nil, errors.Wrapf(errs.ErrDestinationTypeMismatch,
			"destination %s must be an existing directory for multiple sources", dest)
	}

	var reqs []orchestrator.CopyRequest
	for _, src := range expanded {
		exists, isDir, err := fs.Stat(src)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", src)
		}
		if !exists {
			return nil, errors.Wrapf(errs.ErrSourceNotFound, "%s", src)
		}

		if !isDir {
			dst := dest
			if destExists && destIsDir {
				dst = path.Join(dest, filepath.Base(src))
			}
			reqs = append(reqs, orchestrator.CopyRequest{Src: src, Dst: dst})
			continue
		}

		root := dest
		if destExists {
			root = path.Join(dest, filepath.Base(src))
		}
		files, err := fs.ReadDirRecursive(src)
		if err != nil {
			return nil, errors.Wrapf(err, "read directory %s", src)
		}
		for _, rel := range files {
			reqs = append(reqs, orchestrator.CopyRequest{
				Src: path.Join(src, rel),
				Dst: path.Join(root, rel),
			})
		}
	}
	return reqs, nil
}
