// Package engine runs the matcher and the rewriter over many files.
//
// Each file is processed independently: read, scan, rewrite, write back
// atomically. Files are fanned out to a bounded worker pool; the only shared
// state is the report, which is filled once all workers are done. A failing
// file never stops the others.
//
// Usage:
//
//	eng := engine.New(cat, engine.DefaultConfig(), log)
//	summary, err := eng.Run(ctx, files)
package engine

import (
	"context"
	"io/fs"
	"os"
	"runtime"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/idwiden/internal/catalog"
	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/fsutil"
	"github.com/koustreak/idwiden/internal/logger"
	"github.com/koustreak/idwiden/internal/matcher"
	"github.com/koustreak/idwiden/internal/report"
	"github.com/koustreak/idwiden/internal/rewrite"
)

// Config controls a run.
type Config struct {
	// Workers bounds the number of files processed concurrently.
	// Zero or less means runtime.NumCPU().
	Workers int

	// DryRun computes and reports the changes without writing any file.
	DryRun bool
}

// DefaultConfig returns one worker per CPU and in-place rewriting.
func DefaultConfig() *Config {
	return &Config{Workers: runtime.NumCPU()}
}

// Outcome is the per-file result of a run.
type Outcome int

const (
	Unchanged Outcome = iota
	Rewritten
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Rewritten:
		return "rewritten"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}

// FileResult is what processing one file produced. Content is the new
// content for Rewritten and the original content otherwise.
type FileResult struct {
	Path    string
	Outcome Outcome
	Content []byte
	Changes []report.Change
	Err     error
}

// Engine is safe for concurrent use once built.
type Engine struct {
	matcher *matcher.Matcher
	cfg     Config
	log     *logger.Logger

	readFile  func(string) ([]byte, error)
	writeFile func(string, []byte, fs.FileMode) error
}

// New builds an engine over an immutable catalog.
func New(cat *catalog.Catalog, cfg *Config, log *logger.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}
	c := *cfg
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return &Engine{
		matcher:   matcher.New(cat),
		cfg:       c,
		log:       log.Component("engine"),
		readFile:  os.ReadFile,
		writeFile: fsutil.WriteFileAtomic,
	}
}

// Matcher exposes the matcher the engine scans with.
func (e *Engine) Matcher() *matcher.Matcher {
	return e.matcher
}

// ProcessContent scans and rewrites one unit of source text without touching
// the file system. It is a pure function of path, content and the catalog.
func (e *Engine) ProcessContent(path string, content []byte) (FileResult, error) {
	if !utf8.Valid(content) {
		err := errs.Newf(errs.ErrKindRead, "%s: content is not valid UTF-8", path)
		return FileResult{Path: path, Outcome: Failed, Content: content, Err: err}, err
	}

	res, err := rewrite.Apply(path, content, e.matcher.FindAll(path, content))
	if err != nil {
		return FileResult{Path: path, Outcome: Failed, Content: content, Err: err}, err
	}
	if !res.Changed() {
		return FileResult{Path: path, Outcome: Unchanged, Content: content}, nil
	}
	return FileResult{Path: path, Outcome: Rewritten, Content: res.Content, Changes: res.Changes}, nil
}

// ProcessFile reads path, rewrites it and, unless the engine is in dry-run
// mode, writes it back atomically. Errors are carried in the result.
func (e *Engine) ProcessFile(path string) FileResult {
	content, err := e.readFile(path)
	if err != nil {
		err = errs.Wrap(errs.ErrKindRead, "reading "+path, err)
		return FileResult{Path: path, Outcome: Failed, Err: err}
	}

	res, err := e.ProcessContent(path, content)
	if err != nil || res.Outcome != Rewritten || e.cfg.DryRun {
		return res
	}

	if err := e.writeFile(path, res.Content, 0o644); err != nil {
		if !errs.IsWrite(err) {
			err = errs.Wrap(errs.ErrKindWrite, "writing "+path, err)
		}
		return FileResult{Path: path, Outcome: Failed, Content: content, Err: err}
	}
	return res
}

// Run processes files on the worker pool and returns the run summary. When
// ctx is cancelled no new file is started; files already in flight finish,
// and the partial summary is returned with a timeout error.
func (e *Engine) Run(ctx context.Context, files []string) (*report.Summary, error) {
	rep := report.New(e.cfg.DryRun)

	numWorkers := e.cfg.Workers
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	log := e.log.With().Str("run_id", rep.RunID()).Int("workers", numWorkers).Logger()

	results := make([]FileResult, len(files))
	started := make([]bool, len(files))

	g := new(errgroup.Group)
	g.SetLimit(numWorkers)
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = e.ProcessFile(path)
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if !started[i] {
			continue
		}
		switch res.Outcome {
		case Rewritten:
			for _, c := range res.Changes {
				rep.Record(c)
			}
			log.Debugf("%s: %d change(s)", res.Path, len(res.Changes))
		case Failed:
			rep.Fail(res.Path, res.Err)
			log.WarnWith("file failed", res.Err, map[string]any{"path": res.Path, "kind": errs.KindOf(res.Err).String()})
		default:
			rep.Unchanged(res.Path)
		}
	}

	summary := rep.Summary()
	log.InfoWith("run finished", map[string]any{
		"dry_run":         summary.DryRun,
		"files_modified":  summary.FilesModified,
		"files_unchanged": summary.FilesUnchanged,
		"files_failed":    summary.FilesFailed,
		"total_changes":   summary.TotalChanges,
	})

	if err := ctx.Err(); err != nil {
		return summary, errs.Wrap(errs.ErrKindTimeout, "run interrupted", err)
	}
	return summary, nil
}
