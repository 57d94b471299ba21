package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"a":1,"b":[1,2]}`, "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}"},
		{"key order kept", `{"z":1,"a":2}`, "{\n  \"z\": 1,\n  \"a\": 2\n}"},
		{"array", `[1,2]`, "[\n  1,\n  2\n]"},
		{"number", "42", "42"},
		{"surrounding space", "  [true] \n", "[\n  true\n]"},
		{"plain text unchanged", "hello world", "hello world"},
		{"error text unchanged", "Error: boom", "Error: boom"},
		{"broken json unchanged", `{"a":`, `{"a":`},
		{"empty", "", ""},
		{"whitespace only", "  ", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestFormat_StructuredValueRoundTrip(t *testing.T) {
	value := map[string]interface{}{
		"name": "nerdbook",
		"tags": []string{"go", "repl"},
		"meta": map[string]int{"cells": 3},
	}
	raw, err := json.Marshal(value)
	require.NoError(t, err)

	got := Format(string(raw))

	assert.Contains(t, got, "\n  \"meta\": {\n    \"cells\": 3\n  }")
	assert.JSONEq(t, string(raw), got)
}
