package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderCache_GetOrCompute(t *testing.T) {
	rc := NewRenderCache(2)
	calls := 0
	compute := func() string {
		calls++
		return "rendered"
	}

	key := ComputeKey("42", "log")
	assert.Equal(t, "rendered", rc.GetOrCompute(key, compute))
	assert.Equal(t, "rendered", rc.GetOrCompute(key, compute))

	assert.Equal(t, 1, calls)
	hits, misses := rc.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestRenderCache_EvictsOldest(t *testing.T) {
	rc := NewRenderCache(2)
	a, b, c := ComputeKey("a"), ComputeKey("b"), ComputeKey("c")

	rc.GetOrCompute(a, func() string { return "A" })
	rc.GetOrCompute(b, func() string { return "B" })
	rc.GetOrCompute(c, func() string { return "C" })

	assert.Equal(t, 2, rc.Len())
	recomputed := false
	rc.GetOrCompute(a, func() string { recomputed = true; return "A" })
	assert.True(t, recomputed, "oldest entry should have been evicted")
}

func TestComputeKey_SeparatesInputs(t *testing.T) {
	assert.NotEqual(t, ComputeKey("ab", ""), ComputeKey("a", "b"))
	assert.Equal(t, ComputeKey("x", "y"), ComputeKey("x", "y"))
}
