// Package report aggregates the changes of one run and renders the summary.
//
// A Reporter is process scoped: create one per run, let the engine workers
// record into it concurrently, then take the Summary.
package report

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/koustreak/idwiden/internal/errs"
)

// Change is one rewritten declaration.
type Change struct {
	Path  string `json:"-"`
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
	Line  int    `json:"line"`
}

// Failure is a file that could not be processed.
type Failure struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Totals is the headline count of a run.
type Totals struct {
	FilesChanged int `json:"filesChanged"`
	TotalChanges int `json:"totalChanges"`
}

// Summary is the structured outcome of a run.
type Summary struct {
	RunID          string              `json:"runId"`
	DryRun         bool                `json:"dryRun"`
	StartedAt      time.Time           `json:"startedAt"`
	FinishedAt     time.Time           `json:"finishedAt"`
	FilesModified  int                 `json:"filesModified"`
	FilesUnchanged int                 `json:"filesUnchanged"`
	FilesFailed    int                 `json:"filesFailed"`
	TotalChanges   int                 `json:"totalChanges"`
	PerFile        map[string][]Change `json:"perFile"`
	Failed         []Failure           `json:"failed,omitempty"`
}

// OK reports whether no file failed.
func (s *Summary) OK() bool {
	return s.FilesFailed == 0
}

// Files returns the changed paths in lexical order.
func (s *Summary) Files() []string {
	paths := make([]string, 0, len(s.PerFile))
	for p := range s.PerFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reporter collects changes, unchanged files and failures. It is safe for
// concurrent use.
type Reporter struct {
	mu        sync.Mutex
	runID     string
	dryRun    bool
	started   time.Time
	now       func() time.Time
	changes   map[string][]Change
	unchanged map[string]struct{}
	failed    map[string]Failure
}

// New starts a report with a fresh run id.
func New(dryRun bool) *Reporter {
	return newReporter(dryRun, time.Now)
}

func newReporter(dryRun bool, now func() time.Time) *Reporter {
	started := now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(started.UnixNano())), 0)
	return &Reporter{
		runID:     ulid.MustNew(ulid.Timestamp(started), entropy).String(),
		dryRun:    dryRun,
		started:   started,
		now:       now,
		changes:   make(map[string][]Change),
		unchanged: make(map[string]struct{}),
		failed:    make(map[string]Failure),
	}
}

// RunID returns the ULID identifying this run.
func (r *Reporter) RunID() string {
	return r.runID
}

// Record adds one change.
func (r *Reporter) Record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes[c.Path] = append(r.changes[c.Path], c)
}

// Unchanged marks path as processed without changes.
func (r *Reporter) Unchanged(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unchanged[path] = struct{}{}
}

// Fail marks path as failed. Changes already recorded for it are dropped: a
// failed file is never counted as modified.
func (r *Reporter) Fail(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.changes, path)
	delete(r.unchanged, path)
	r.failed[path] = Failure{Path: path, Kind: errs.KindOf(err).String(), Reason: err.Error()}
}

// SummaryFor returns the changes of one file ordered by line.
func (r *Reporter) SummaryFor(path string) []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Change(nil), r.changes[path]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// Totals returns the number of changed files and changes so far.
func (r *Reporter) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := Totals{FilesChanged: len(r.changes)}
	for _, cs := range r.changes {
		t.TotalChanges += len(cs)
	}
	return t
}

// Summary snapshots the run. It can be called more than once; FinishedAt is
// the time of the call.
func (r *Reporter) Summary() *Summary {
	totals := r.Totals()

	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Summary{
		RunID:          r.runID,
		DryRun:         r.dryRun,
		StartedAt:      r.started,
		FinishedAt:     r.now(),
		FilesModified:  totals.FilesChanged,
		FilesUnchanged: len(r.unchanged),
		FilesFailed:    len(r.failed),
		TotalChanges:   totals.TotalChanges,
		PerFile:        make(map[string][]Change, len(r.changes)),
	}
	for path, cs := range r.changes {
		sorted := append([]Change(nil), cs...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line < sorted[j].Line })
		s.PerFile[path] = sorted
	}
	for _, f := range r.failed {
		s.Failed = append(s.Failed, f)
	}
	sort.Slice(s.Failed, func(i, j int) bool { return s.Failed[i].Path < s.Failed[j].Path })
	return s
}
