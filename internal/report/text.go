package report

import (
	"fmt"
	"io"
)

// WriteText prints the human-readable summary: one block per changed file,
// the failed files, and the totals.
func (s *Summary) WriteText(w io.Writer) error {
	verb := "modified"
	if s.DryRun {
		verb = "would modify"
	}

	p := &printer{w: w}
	for _, path := range s.Files() {
		p.printf("%s\n", path)
		for _, c := range s.PerFile[path] {
			p.printf("  %d: %s %s -> %s\n", c.Line, c.Field, c.From, c.To)
		}
	}
	if len(s.Failed) > 0 {
		p.printf("\nfailed:\n")
		for _, f := range s.Failed {
			p.printf("  %s [%s] %s\n", f.Path, f.Kind, f.Reason)
		}
	}
	p.printf("\nrun %s: %s %d file(s), %d change(s); %d unchanged, %d failed\n",
		s.RunID, verb, s.FilesModified, s.TotalChanges, s.FilesUnchanged, s.FilesFailed)
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
