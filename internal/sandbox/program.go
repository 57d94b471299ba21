package sandbox

import "strings"

// Separator terminates every segment of an accumulated program.
const Separator = "\n"

// Program is the source handed to an Executor: an ordered list of segments
// evaluated one after another inside a single interpreter, so bindings made
// by an earlier segment are visible to later ones.
type Program struct {
	Segments []string

	// Accumulated marks a program built from several cells. Its text form
	// terminates every segment with Separator.
	Accumulated bool
}

// Source wraps a single piece of text as a program.
func Source(text string) Program {
	return Program{Segments: []string{text}}
}

// Text returns the program as the single string it stands for.
func (p Program) Text() string {
	if !p.Accumulated {
		return strings.Join(p.Segments, "")
	}
	var b strings.Builder
	for _, s := range p.Segments {
		b.WriteString(s)
		b.WriteString(Separator)
	}
	return b.String()
}

// Empty reports whether the program holds no source at all.
func (p Program) Empty() bool {
	for _, s := range p.Segments {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
