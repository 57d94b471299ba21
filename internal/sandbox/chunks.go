package sandbox

import "strings"

// chunk is a run of cell lines evaluated by one interpreter call.
type chunk struct {
	// line is the 0-based index of the chunk's first line within the cell.
	line int
	text string
}

// source returns the chunk text padded with newlines so positions in
// interpreter errors refer to the cell's own lines.
func (c chunk) source() string {
	return strings.Repeat("\n", c.line) + c.text
}

// splitChunks breaks a cell body into declaration and statement chunks.
//
// The interpreter parses a chunk as a file when its first token is a
// declaration keyword and as a function body otherwise, so a cell such as
// "var x = 5\nconsole.Log(x)" cannot be evaluated in one call. Every
// top-level var, const, type and func declaration gets a chunk of its own;
// consecutive statements share one. Chunks holding only comments and blank
// lines are dropped.
func splitChunks(body string) []chunk {
	lines := strings.Split(body, "\n")

	var (
		sc      lexState
		chunks  []chunk
		start   = -1
		inDecl  bool
		hasCode bool
		cont    bool
	)

	flush := func(end int) {
		if start >= 0 && hasCode {
			chunks = append(chunks, chunk{line: start, text: strings.Join(lines[start:end], "\n")})
		}
		start, inDecl, hasCode = -1, false, false
	}

	for i, line := range lines {
		if sc.idle() && !cont && isDeclLine(strings.TrimSpace(line)) {
			flush(i)
			start, inDecl = i, true
		}
		if start < 0 {
			start = i
		}

		code, last := sc.scanLine(line)
		hasCode = hasCode || code
		cont = inDecl && code && continuesOnNextLine(last)

		if inDecl && sc.idle() && !cont {
			flush(i + 1)
		}
	}
	flush(len(lines))

	return chunks
}

// isDeclLine reports whether a trimmed line opens a top-level declaration.
func isDeclLine(trimmed string) bool {
	for _, kw := range []string{"var", "const", "type", "func"} {
		if !strings.HasPrefix(trimmed, kw) {
			continue
		}
		if len(trimmed) == len(kw) {
			return kw != "func"
		}
		switch trimmed[len(kw)] {
		case ' ', '\t', '(':
			return true
		}
	}
	return false
}

// continuesOnNextLine reports whether a line ending in c cannot end a
// declaration, as with a trailing binary operator or comma.
func continuesOnNextLine(c byte) bool {
	return strings.IndexByte("+-*/%&|^<>=,.", c) >= 0
}

// lexState tracks the lexical context that spans lines: bracket depth, raw
// strings and block comments.
type lexState struct {
	depth     int
	inRaw     bool
	inComment bool
}

// idle reports whether the scanner sits at the top level of the cell.
func (s *lexState) idle() bool {
	return s.depth == 0 && !s.inRaw && !s.inComment
}

// scanLine advances over one line. It reports whether the line holds any code
// outside comments, and the last such byte.
func (s *lexState) scanLine(line string) (code bool, last byte) {
	mark := func(c byte) {
		code, last = true, c
	}

	for i := 0; i < len(line); i++ {
		c := line[i]

		switch {
		case s.inComment:
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				s.inComment = false
				i++
			}
			continue
		case s.inRaw:
			if c == '`' {
				s.inRaw = false
				mark(c)
			}
			continue
		}

		switch c {
		case ' ', '\t', '\r':
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return code, last
			}
			if i+1 < len(line) && line[i+1] == '*' {
				s.inComment = true
				i++
				continue
			}
			mark(c)
		case '`':
			s.inRaw = true
			mark(c)
		case '"', '\'':
			i = skipQuoted(line, i)
			mark(c)
		case '(', '[', '{':
			s.depth++
			mark(c)
		case ')', ']', '}':
			if s.depth > 0 {
				s.depth--
			}
			mark(c)
		default:
			mark(c)
		}
	}
	return code, last
}

// skipQuoted returns the index of the quote closing the literal that opens
// at line[open], or the last index when the literal is unterminated.
func skipQuoted(line string, open int) int {
	quote := line[open]
	for i := open + 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(line) - 1
}
