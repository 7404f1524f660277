package matcher

import (
	"regexp"
	"sort"
)

// Pattern: class|struct|interface|record [class|struct] <Name>
var typeDeclPattern = regexp.MustCompile(`\b(?:class|struct|interface|record(?:\s+(?:class|struct))?)\s+([A-Za-z_]\w*)`)

// Scope is the extent of one type declaration, from its keyword to its
// closing brace (or terminating semicolon for body-less records).
type Scope struct {
	Name  string
	Start int
	End   int
}

// Scopes lists type declarations of a masked source unit.
type Scopes []Scope

// FindScopes locates type declarations in the masked text.
func FindScopes(mask *Mask) Scopes {
	text := mask.Blank()
	var scopes Scopes
	for _, loc := range typeDeclPattern.FindAllSubmatchIndex(text, -1) {
		if isConstraint(text, loc[0]) {
			continue
		}
		end := declarationEnd(text, loc[1])
		scopes = append(scopes, Scope{
			Name:  string(text[loc[2]:loc[3]]),
			Start: loc[0],
			End:   end,
		})
	}
	sort.SliceStable(scopes, func(i, j int) bool { return scopes[i].Start < scopes[j].Start })
	return scopes
}

// isConstraint reports whether the keyword at offset belongs to a generic
// constraint ("where T : class", "where U : notnull, struct") rather than
// starting a type declaration.
func isConstraint(text []byte, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ':', ',':
			return true
		}
		return false
	}
	return false
}

// OwnerAt returns the innermost type declaration enclosing offset.
func (s Scopes) OwnerAt(offset int) (string, bool) {
	owner, found := "", false
	for _, sc := range s {
		if sc.Start > offset {
			break
		}
		if offset < sc.End {
			owner, found = sc.Name, true
		}
	}
	return owner, found
}

// declarationEnd scans from just after the type name to the end of the
// declaration: the brace closing its body, or a ';' outside parentheses for
// positional records without a body.
func declarationEnd(text []byte, from int) int {
	parens := 0
	for i := from; i < len(text); i++ {
		switch text[i] {
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		case ';':
			if parens == 0 {
				return i + 1
			}
		case '{':
			if parens == 0 {
				return matchingBrace(text, i)
			}
		}
	}
	return len(text)
}

// matchingBrace returns the offset just past the brace closing the one at open.
func matchingBrace(text []byte, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(text)
}
