// Package matcher locates field declarations in source text whose name and
// current type satisfy a rule of the field pattern registry.
//
// Matching is structural, not a parse: comments and literals are masked out,
// a small set of declaration shapes is searched with regular expressions, and
// the enclosing type of each hit is found by brace matching. Shapes are
// pluggable so a real parser can replace them without changing Match.
package matcher

import (
	"bytes"
	"sort"

	"github.com/koustreak/idwiden/internal/catalog"
)

// Match is one declaration to rewrite. [Start, End) is the declaration span:
// the type token plus the nullable marker, nothing else.
type Match struct {
	Path            string
	Line            int
	Start           int
	End             int
	Shape           string
	Owner           string
	Field           string
	CurrentType     string
	CurrentNullable bool
	Rule            catalog.Rule
	TargetType      string
}

// QualifiedField returns Owner.Field, or Field when the owner is unknown.
func (m Match) QualifiedField() string {
	if m.Owner == "" {
		return m.Field
	}
	return m.Owner + "." + m.Field
}

// Replacement returns the text that replaces the declaration span.
func (m Match) Replacement() string {
	if m.CurrentNullable {
		return m.TargetType + "?"
	}
	return m.TargetType
}

// Matcher is safe for concurrent use; it holds only the immutable catalog.
type Matcher struct {
	cat    *catalog.Catalog
	shapes []Shape
}

// New returns a matcher over cat. With no shapes, DefaultShapes is used.
func New(cat *catalog.Catalog, shapes ...Shape) *Matcher {
	if len(shapes) == 0 {
		shapes = DefaultShapes()
	}
	return &Matcher{cat: cat, shapes: shapes}
}

// Scan starts a single pass over content. The returned Scanner is lazy and
// cannot be rewound; scan again for a fresh pass.
func (m *Matcher) Scan(path string, content []byte) *Scanner {
	return &Scanner{m: m, path: path, content: content}
}

// FindAll drains a scan into a slice ordered by position.
func (m *Matcher) FindAll(path string, content []byte) []Match {
	var out []Match
	sc := m.Scan(path, content)
	for sc.Next() {
		out = append(out, sc.Match())
	}
	return out
}

// Scanner iterates the matches of one source unit.
//
//	sc := m.Scan(path, content)
//	for sc.Next() {
//	    match := sc.Match()
//	}
type Scanner struct {
	m       *Matcher
	path    string
	content []byte

	started    bool
	candidates []Candidate
	scopes     Scopes
	lines      []int
	pos        int
	cur        Match
}

// Next advances to the next match. It returns false when the unit is exhausted.
func (s *Scanner) Next() bool {
	if !s.started {
		s.prepare()
	}
	for s.pos < len(s.candidates) {
		c := s.candidates[s.pos]
		s.pos++
		if match, ok := s.decide(c); ok {
			s.cur = match
			return true
		}
	}
	s.cur = Match{}
	return false
}

// Match returns the current match. Valid only after Next returned true.
func (s *Scanner) Match() Match {
	return s.cur
}

func (s *Scanner) prepare() {
	s.started = true
	mask := NewMask(s.content)
	s.scopes = FindScopes(mask)
	for _, shape := range s.m.shapes {
		s.candidates = append(s.candidates, shape.Find(mask)...)
	}
	sort.SliceStable(s.candidates, func(i, j int) bool {
		return s.candidates[i].Start < s.candidates[j].Start
	})
	s.lines = lineStarts(s.content)
}

// decide applies the registry to one candidate: the first rule whose name
// pattern and source precondition hold, and whose target can be resolved,
// decides the outcome. A narrow target means the field is already correct.
func (s *Scanner) decide(c Candidate) (Match, bool) {
	cat := s.m.cat
	if !cat.Types.IsNarrow(c.Type) {
		return Match{}, false
	}

	owner := c.Owner
	if owner == "" {
		owner, _ = s.scopes.OwnerAt(c.Start)
	}

	for _, rule := range cat.Registry.RulesFor(c.Name) {
		if !rule.Nullable.Allows(c.Nullable) {
			continue
		}
		width, ok := cat.Registry.Target(rule, owner)
		if !ok {
			continue
		}
		if width != catalog.Wide {
			return Match{}, false
		}
		return Match{
			Path:            s.path,
			Line:            s.lineOf(c.Start),
			Start:           c.Start,
			End:             c.End,
			Shape:           c.Shape,
			Owner:           owner,
			Field:           c.Name,
			CurrentType:     c.Type,
			CurrentNullable: c.Nullable,
			Rule:            rule,
			TargetType:      cat.Types.Wide,
		}, true
	}
	return Match{}, false
}

func (s *Scanner) lineOf(offset int) int {
	return sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > offset })
}

// lineStarts returns the offset of the first byte of every line.
func lineStarts(content []byte) []int {
	starts := []int{0}
	for i := 0; ; {
		j := bytes.IndexByte(content[i:], '\n')
		if j < 0 {
			return starts
		}
		i += j + 1
		starts = append(starts, i)
	}
}
