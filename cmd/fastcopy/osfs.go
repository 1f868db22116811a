package main

import (
	"os"
	"path/filepath"

	"github.com/WineChord/fastcopy/utils"
)

// osFS is pathglob.FS backed by the local filesystem view of cluster
// paths. FastCopy's argument/URI resolution is external per spec.md §1,
// so this is intentionally the simplest possible adapter, not a
// cluster-aware client.
type osFS struct{}

func (osFS) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

func (osFS) Stat(p string) (exists, isDir bool, err error) {
	exists, err = utils.Exists(p)
	if err != nil || !exists {
		return exists, false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return false, false, err
	}
	return true, info.IsDir(), nil
}

func (osFS) ReadDirRecursive(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
