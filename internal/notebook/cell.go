// Package notebook implements the cell execution engine: an ordered store of
// cells, the resolver that decides what source a run executes, the result
// formatter and the Notebook facade that ties them to a sandbox.Executor.
package notebook

// Cell is one unit of editable and executable source.
type Cell struct {
	// ID is assigned at creation and never reused.
	ID string `json:"id"`

	// Source is the cell's text.
	Source string `json:"source"`

	// Result is the formatted value of the last run, or empty.
	Result string `json:"result"`

	// Log holds the diagnostics of the last run joined by newlines.
	Log string `json:"log"`

	// Active controls whether the source is included when later cells run
	// with context. It never prevents the cell itself from running.
	Active bool `json:"active"`
}
