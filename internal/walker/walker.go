// Package walker enumerates candidate source files under a set of roots.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/logger"
)

// DefaultSkipDirs are build output, VCS and dependency directories never
// worth scanning.
var DefaultSkipDirs = []string{".git", ".hg", ".svn", ".vs", ".idea", "bin", "obj", "node_modules", "vendor"}

// Options controls a walk.
type Options struct {
	// Extensions selects files by extension, case-insensitive, with or
	// without the leading dot. Empty selects every file.
	Extensions []string

	// SkipDirs are directory base names not descended into.
	// Nil means DefaultSkipDirs.
	SkipDirs []string

	Log *logger.Logger
}

// Walk returns the candidate files under roots, sorted and deduplicated. A
// root may also name a single file. A missing root is logged and skipped so
// that one stale entry in a root list does not stop the run, and so is any
// unreadable entry below a root. Only a root that exists but cannot be read
// is returned as a read error.
func Walk(roots []string, opts Options) ([]string, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	exts := normalizeExts(opts.Extensions)
	skip := opts.SkipDirs
	if skip == nil {
		skip = DefaultSkipDirs
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if !matchExt(path, exts) {
			return
		}
		clean := filepath.Clean(path)
		if _, dup := seen[clean]; dup {
			return
		}
		seen[clean] = struct{}{}
		files = append(files, clean)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				log.Warnf("directory not found: %s", root)
				continue
			}
			return nil, errs.Wrap(errs.ErrKindRead, "stat "+root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				log.WarnWith("skipping unreadable path", err, map[string]any{"path": path})
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && skipped(d.Name(), skip) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindRead, "walking "+root, err)
		}
	}

	sort.Strings(files)
	log.Debugf("found %d candidate file(s) under %d root(s)", len(files), len(roots))
	return files, nil
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func matchExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func skipped(name string, skip []string) bool {
	for _, s := range skip {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}
