package sandbox

import (
	"strconv"
	"strings"
)

// DefaultPrelude lists the packages every cell can use without importing them.
var DefaultPrelude = []string{
	"fmt",
	"strings",
	"strconv",
	"math",
	"sort",
	"time",
	"encoding/json",
}

// splitImports pulls import declarations out of a cell.
//
// The interpreter accepts a chunk either as a file (declarations only) or as
// statements, never an import followed by statements, so imports are hoisted
// and evaluated on their own. Removed lines are left blank to keep line
// numbers in error messages pointing at the cell's own text.
func splitImports(src string) (specs []string, body string) {
	lines := strings.Split(src, "\n")
	inImportBlock := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inImportBlock {
			lines[i] = ""
			if strings.HasPrefix(trimmed, ")") {
				inImportBlock = false
				continue
			}
			if spec := importSpec(trimmed); spec != "" {
				specs = append(specs, spec)
			}
			continue
		}

		if !isImportLine(trimmed) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "import"))
		switch {
		case strings.HasPrefix(rest, "("):
			lines[i] = ""
			inner := strings.TrimSpace(strings.TrimPrefix(rest, "("))
			if strings.HasSuffix(inner, ")") {
				// import ( "fmt"; "os" ) on one line
				for _, part := range strings.Split(strings.TrimSuffix(inner, ")"), ";") {
					if spec := importSpec(strings.TrimSpace(part)); spec != "" {
						specs = append(specs, spec)
					}
				}
				continue
			}
			if spec := importSpec(inner); spec != "" {
				specs = append(specs, spec)
			}
			inImportBlock = true
		default:
			if spec := importSpec(rest); spec != "" {
				lines[i] = ""
				specs = append(specs, spec)
			}
		}
	}

	return specs, strings.Join(lines, "\n")
}

// isImportLine reports whether a trimmed line starts an import declaration
// rather than an identifier such as "importer".
func isImportLine(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "import") || len(trimmed) == len("import") {
		return false
	}
	switch trimmed[len("import")] {
	case ' ', '\t', '"', '`', '(':
		return true
	}
	return false
}

// importSpec validates one import spec ("path", alias "path", . "path",
// _ "path"), dropping trailing comments. It returns "" when the text is not
// an import spec.
func importSpec(text string) string {
	if idx := strings.Index(text, "//"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	text = strings.TrimSuffix(text, ";")
	if text == "" {
		return ""
	}

	fields := strings.Fields(text)
	var name, path string
	switch len(fields) {
	case 1:
		path = fields[0]
	case 2:
		name, path = fields[0], fields[1]
	default:
		return ""
	}
	if _, err := strconv.Unquote(path); err != nil {
		return ""
	}
	if name != "" {
		return name + " " + path
	}
	return path
}

// preludeSpecs turns package paths into quoted import specs, console first.
func preludeSpecs(packages []string) []string {
	specs := []string{strconv.Quote(ConsolePackage)}
	for _, pkg := range packages {
		if pkg == "" || pkg == ConsolePackage {
			continue
		}
		specs = append(specs, strconv.Quote(pkg))
	}
	return specs
}
