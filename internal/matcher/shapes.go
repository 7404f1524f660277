package matcher

import (
	"regexp"
)

// Candidate is one field declaration found by a shape, before any rule is
// consulted. [Start, End) covers the type token and the nullable marker.
type Candidate struct {
	Shape    string
	Start    int
	End      int
	Type     string
	Nullable bool
	Name     string
	// Owner is set by shapes that know the declaring type themselves
	// (positional record parameters); otherwise the scope decides.
	Owner string
}

// Shape recognises one syntactic form of field declaration. Shapes search the
// masked text, so comments and literals never produce candidates.
type Shape interface {
	Name() string
	Find(mask *Mask) []Candidate
}

// DefaultShapes returns the shapes used for C#-style data models. They are
// mutually exclusive: a property needs an accessor block, a field a ';' or
// initializer, a record parameter the record's parameter list.
func DefaultShapes() []Shape {
	return []Shape{PropertyShape{}, FieldShape{}, RecordParameterShape{}}
}

const (
	typeToken = `([A-Za-z_][\w.]*)`
	nameToken = `([A-Za-z_]\w*)`
)

var (
	// Pattern: [modifiers] <Type>[?] <Name> { get|set|init
	propertyPattern = regexp.MustCompile(
		`(?:^|[\s;{}\]])(?:(?:public|private|protected|internal|static|virtual|override|required|new|sealed|abstract|unsafe|extern)\s+)*` +
			typeToken + `(\?)?\s+` + nameToken + `\s*\{\s*(?:get|set|init)\b`)

	// Pattern: <modifiers> <Type>[?] <Name> ; | = (not =>)
	fieldPattern = regexp.MustCompile(
		`(?:^|[\s;{}\]])(?:(?:public|private|protected|internal|static|readonly|volatile|new|required)\s+)+` +
			typeToken + `(\?)?\s+` + nameToken + `\s*(?:;|=[^=>])`)

	// Pattern: record [class|struct] <Name>[<T>] (
	recordHeaderPattern = regexp.MustCompile(
		`\brecord(?:\s+(?:class|struct))?\s+` + nameToken + `\s*(?:<[^>]*>)?\s*\(`)

	// Pattern: [attributes] <Type>[?] <Name> [= default]
	parameterPattern = regexp.MustCompile(
		`^\s*(?:\[[^\]]*\]\s*)*` + typeToken + `(\?)?\s+` + nameToken + `\s*(?:=|$)`)
)

// PropertyShape matches auto-properties: public int? ArticleTypeId { get; set; }
type PropertyShape struct{}

func (PropertyShape) Name() string { return "property" }

func (s PropertyShape) Find(mask *Mask) []Candidate {
	return findDeclarations(s.Name(), propertyPattern, mask)
}

// FieldShape matches fields with at least one modifier: public int ArticleId;
type FieldShape struct{}

func (FieldShape) Name() string { return "field" }

func (s FieldShape) Find(mask *Mask) []Candidate {
	return findDeclarations(s.Name(), fieldPattern, mask)
}

// findDeclarations resumes each search just after the previous field name,
// so the ';' ending one declaration can also open the next.
func findDeclarations(shape string, re *regexp.Regexp, mask *Mask) []Candidate {
	text := mask.Blank()
	src := mask.Source()

	var out []Candidate
	for pos := 0; pos < len(text); {
		loc := re.FindSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		pos = loc[7]

		c := Candidate{
			Shape: shape,
			Start: loc[2],
			End:   loc[3],
			Type:  string(src[loc[2]:loc[3]]),
			Name:  string(src[loc[6]:loc[7]]),
		}
		if loc[4] >= 0 {
			c.Nullable = true
			c.End = loc[5]
		}
		if isKeyword(c.Type) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// RecordParameterShape matches positional record parameters:
// public record ArticleDto(int Id, int? ArticleTypeId);
type RecordParameterShape struct{}

func (RecordParameterShape) Name() string { return "record-parameter" }

func (s RecordParameterShape) Find(mask *Mask) []Candidate {
	text := mask.Blank()
	src := mask.Source()

	var out []Candidate
	for _, loc := range recordHeaderPattern.FindAllSubmatchIndex(text, -1) {
		owner := string(text[loc[2]:loc[3]])
		open := loc[1] - 1
		close := matchingParen(text, open)
		if close < 0 {
			continue
		}
		for _, seg := range splitParameters(text, open+1, close) {
			m := parameterPattern.FindSubmatchIndex(text[seg[0]:seg[1]])
			if m == nil {
				continue
			}
			c := Candidate{
				Shape: s.Name(),
				Start: seg[0] + m[2],
				End:   seg[0] + m[3],
				Type:  string(src[seg[0]+m[2] : seg[0]+m[3]]),
				Name:  string(src[seg[0]+m[6] : seg[0]+m[7]]),
				Owner: owner,
			}
			if m[4] >= 0 {
				c.Nullable = true
				c.End = seg[0] + m[5]
			}
			if isKeyword(c.Type) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// matchingParen returns the offset of the ')' closing the '(' at open, or -1.
func matchingParen(text []byte, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitParameters splits text[from:to] on commas outside (), [] and <>.
func splitParameters(text []byte, from, to int) [][2]int {
	var segs [][2]int
	depth, start := 0, from
	for i := from; i < to; i++ {
		switch text[i] {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			depth--
		case ',':
			if depth == 0 {
				segs = append(segs, [2]int{start, i})
				start = i + 1
			}
		}
	}
	return append(segs, [2]int{start, to})
}

var keywords = map[string]bool{
	"class": true, "struct": true, "record": true, "interface": true, "enum": true,
	"return": true, "new": true, "using": true, "namespace": true, "const": true,
	"event": true, "delegate": true, "operator": true, "implicit": true, "explicit": true,
}

func isKeyword(tok string) bool {
	return keywords[tok]
}
