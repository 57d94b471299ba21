package notebook

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Format pretty-prints text that is valid JSON with two-space indentation and
// returns anything else unchanged.
func Format(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return text
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return text
	}
	return buf.String()
}
