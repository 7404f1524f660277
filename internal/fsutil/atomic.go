// Package fsutil holds the file-system primitives shared by the engine and the
// report sinks.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/koustreak/idwiden/internal/errs"
)

// renameFile is swapped by tests to simulate a failing replace.
var renameFile = os.Rename

// WriteFileAtomic replaces path with data so that readers observe either the
// old content or the new one, never a mix. The data is written to a temporary
// file in the same directory, synced, and renamed over path. The mode of an
// existing file is kept; perm applies to new files only.
//
// On any failure the temporary file is removed and path is left untouched.
//
// A symlink is followed: its target is replaced and the link is kept.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	if resolved, evalErr := filepath.EvalSymlinks(path); evalErr == nil {
		path = resolved
	}
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".idwiden-*")
	if err != nil {
		return errs.Wrap(errs.ErrKindWrite, fmt.Sprintf("creating temp file for %s", path), err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errs.Wrap(errs.ErrKindWrite, fmt.Sprintf("writing %s", path), err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return errs.Wrap(errs.ErrKindWrite, fmt.Sprintf("setting mode of %s", path), err)
	}
	if err = tmp.Sync(); err != nil {
		return errs.Wrap(errs.ErrKindWrite, fmt.Sprintf("syncing %s", path), err)
	}
	if err = tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrKindWrite, fmt.Sprintf("closing %s", path), err)
	}
	if err = renameFile(tmpName, path); err != nil {
		return errs.Wrap(errs.ErrKindWrite, fmt.Sprintf("replacing %s", path), err)
	}
	return nil
}
