// Package rewrite applies declaration matches to source text.
package rewrite

import (
	"bytes"
	"sort"

	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/matcher"
	"github.com/koustreak/idwiden/internal/report"
)

// Result is the rewritten content of one file and the changes applied to it.
type Result struct {
	Content []byte
	Changes []report.Change
}

// Changed reports whether any declaration was rewritten.
func (r Result) Changed() bool {
	return len(r.Changes) > 0
}

// Apply replaces the declaration span of every match with its target type and
// leaves every other byte of content untouched. Matches may arrive in any
// order; they are sorted by position and must not overlap.
//
// An overlap, or a span whose text no longer reads as the match's current
// type, fails the whole file: content is returned unmodified with the error.
func Apply(path string, content []byte, matches []matcher.Match) (Result, error) {
	if len(matches) == 0 {
		return Result{Content: content}, nil
	}

	sorted := append([]matcher.Match(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	prevEnd := -1
	var prev matcher.Match
	for _, m := range sorted {
		if m.Start < 0 || m.End > len(content) || m.Start >= m.End {
			return Result{Content: content}, errs.Newf(errs.ErrKindInvalidInput,
				"%s: span [%d,%d) of %s is outside the file", path, m.Start, m.End, m.Field)
		}
		if m.Start < prevEnd {
			return Result{Content: content}, errs.Newf(errs.ErrKindAmbiguousDeclaration,
				"%s:%d: %s overlaps %s (line %d)", path, m.Line, m.QualifiedField(), prev.QualifiedField(), prev.Line)
		}
		if got, want := string(content[m.Start:m.End]), expected(m); got != want {
			return Result{Content: content}, errs.Newf(errs.ErrKindInvalidInput,
				"%s:%d: span of %s reads %q, expected %q", path, m.Line, m.QualifiedField(), got, want)
		}
		prevEnd, prev = m.End, m
	}

	var buf bytes.Buffer
	buf.Grow(len(content) + len(sorted)*4)

	changes := make([]report.Change, 0, len(sorted))
	last := 0
	for _, m := range sorted {
		buf.Write(content[last:m.Start])
		buf.WriteString(m.Replacement())
		last = m.End

		changes = append(changes, report.Change{
			Path:  path,
			Field: m.QualifiedField(),
			From:  expected(m),
			To:    m.Replacement(),
			Line:  m.Line,
		})
	}
	buf.Write(content[last:])

	return Result{Content: buf.Bytes(), Changes: changes}, nil
}

func expected(m matcher.Match) string {
	if m.CurrentNullable {
		return m.CurrentType + "?"
	}
	return m.CurrentType
}
