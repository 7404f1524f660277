package matcher

// Mask is a copy of a source unit in which comments and string/char literals
// are blanked out with spaces (newlines kept). Offsets in the mask are the
// offsets in the original source, so shapes can search the mask and slice the
// original.
type Mask struct {
	src   []byte
	blank []byte
}

// NewMask blanks comments and literals of C-family source: // and /* */
// comments, "..." strings, @"..." verbatim strings, """...""" raw strings and
// '.' character literals.
func NewMask(src []byte) *Mask {
	blank := make([]byte, len(src))
	copy(blank, src)

	clear := func(from, to int) {
		if to > len(blank) {
			to = len(blank)
		}
		for i := from; i < to; i++ {
			if blank[i] != '\n' {
				blank[i] = ' '
			}
		}
	}

	n := len(src)
	for i := 0; i < n; {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			end := indexFrom(src, i, '\n')
			clear(i, end)
			i = end
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := indexSeq(src, i+2, "*/")
			clear(i, end)
			i = end
		case c == '"' && i+2 < n && src[i+1] == '"' && src[i+2] == '"':
			end := indexSeq(src, i+3, `"""`)
			clear(i, end)
			i = end
		case c == '@' && i+1 < n && src[i+1] == '"':
			end := verbatimEnd(src, i+2)
			clear(i, end)
			i = end
		case c == '"':
			end := quotedEnd(src, i+1, '"')
			clear(i, end)
			i = end
		case c == '\'':
			end := quotedEnd(src, i+1, '\'')
			clear(i, end)
			i = end
		default:
			i++
		}
	}
	return &Mask{src: src, blank: blank}
}

// Blank returns the masked text.
func (m *Mask) Blank() []byte { return m.blank }

// Source returns the original text.
func (m *Mask) Source() []byte { return m.src }

func indexFrom(b []byte, from int, c byte) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return len(b)
}

// indexSeq returns the offset just past seq, or len(b).
func indexSeq(b []byte, from int, seq string) int {
	for i := from; i+len(seq) <= len(b); i++ {
		if string(b[i:i+len(seq)]) == seq {
			return i + len(seq)
		}
	}
	return len(b)
}

// quotedEnd returns the offset just past the closing quote, honouring
// backslash escapes. Unterminated literals end at the line break.
func quotedEnd(b []byte, from int, quote byte) int {
	for i := from; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			return i
		}
	}
	return len(b)
}

// verbatimEnd handles @"..." where "" is an escaped quote.
func verbatimEnd(b []byte, from int) int {
	for i := from; i < len(b); i++ {
		if b[i] != '"' {
			continue
		}
		if i+1 < len(b) && b[i+1] == '"' {
			i++
			continue
		}
		return i + 1
	}
	return len(b)
}
