package notebook

import (
	"context"
	"sync"

	"nerdbook/internal/logging"
	"nerdbook/internal/sandbox"
)

// DemoSources are the cells a fresh demo notebook opens with.
var DemoSources = []string{
	"x := 5",
	"console.Log(x)",
}

// Notebook serialises every operation on one Store and runs cells through an
// Executor. A run holds the lock from resolution to the store update, so
// only one execution is ever in flight.
type Notebook struct {
	mu               sync.Mutex
	store            *Store
	exec             sandbox.Executor
	refreshPreceding bool
	newID            IDFunc
}

// Option configures a Notebook.
type Option func(*Notebook)

// WithExecutor sets the executor. Defaults to a Yaegi executor.
func WithExecutor(exec sandbox.Executor) Option {
	return func(nb *Notebook) {
		nb.exec = exec
	}
}

// WithIDFunc sets the cell id generator. Defaults to random UUIDs.
func WithIDFunc(fn IDFunc) Option {
	return func(nb *Notebook) {
		nb.newID = fn
	}
}

// WithRefreshPreceding makes a contextual run also re-run every active cell
// before the target, each with its own context, and store their results.
func WithRefreshPreceding(enabled bool) Option {
	return func(nb *Notebook) {
		nb.refreshPreceding = enabled
	}
}

// New creates an empty notebook.
func New(opts ...Option) *Notebook {
	nb := &Notebook{}
	for _, opt := range opts {
		opt(nb)
	}
	if nb.exec == nil {
		nb.exec = sandbox.NewYaegiExecutor()
	}
	nb.store = NewStore(nb.newID)
	return nb
}

// SeedDemo appends the demo cells and returns them.
func (nb *Notebook) SeedDemo() []Cell {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	seeded := make([]Cell, 0, len(DemoSources))
	for _, src := range DemoSources {
		c := nb.store.Add()
		nb.store.Edit(c.ID, src)
		c.Source = src
		seeded = append(seeded, c)
	}
	logging.Notebook("seeded %d demo cells", len(seeded))
	return seeded
}

// AddCell appends an empty active cell.
func (nb *Notebook) AddCell() Cell {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	c := nb.store.Add()
	logging.NotebookDebug("added cell %s at %d", c.ID, nb.store.Len()-1)
	logging.Audit().CellChange(logging.AuditCellAdd, c.ID, true)
	return c
}

// DeleteCell removes a cell. Unknown ids are ignored.
func (nb *Notebook) DeleteCell(id string) bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	ok := nb.store.Remove(id)
	nb.logChange(logging.AuditCellDelete, id, ok)
	return ok
}

// ToggleCell flips whether a cell contributes to later contextual runs.
func (nb *Notebook) ToggleCell(id string) bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	ok := nb.store.ToggleActive(id)
	nb.logChange(logging.AuditCellToggle, id, ok)
	return ok
}

// SetCellActive sets a cell's Active flag directly.
func (nb *Notebook) SetCellActive(id string, active bool) bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	ok := nb.store.SetActive(id, active)
	nb.logChange(logging.AuditCellToggle, id, ok)
	return ok
}

// EditCell replaces a cell's source.
func (nb *Notebook) EditCell(id, source string) bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	ok := nb.store.Edit(id, source)
	nb.logChange(logging.AuditCellEdit, id, ok)
	return ok
}

func (nb *Notebook) logChange(event logging.AuditEventType, id string, ok bool) {
	if !ok {
		logging.NotebookDebug("%s: unknown cell %q ignored", event, id)
	}
	logging.Audit().CellChange(event, id, ok)
}

// RunCell resolves, executes and formats the cell, stores the outcome and
// returns the updated cell. It reports false for an unknown id.
func (nb *Notebook) RunCell(ctx context.Context, id string, isolated bool) (Cell, bool) {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	cells := nb.store.Cells()
	target := -1
	for i := range cells {
		if cells[i].ID == id {
			target = i
			break
		}
	}
	if target < 0 {
		logging.NotebookDebug("run: unknown cell %q ignored", id)
		return Cell{}, false
	}

	if !isolated && nb.refreshPreceding {
		for i := 0; i < target; i++ {
			if cells[i].Active {
				nb.run(ctx, cells, cells[i].ID, false)
			}
		}
	}
	nb.run(ctx, cells, id, isolated)

	c, _ := nb.store.Get(id)
	return c, true
}

// run executes one resolution against a snapshot and stores the outcome.
// Caller holds mu.
func (nb *Notebook) run(ctx context.Context, cells []Cell, id string, isolated bool) {
	program := ResolveProgram(cells, id, isolated)
	res := nb.exec.Execute(ctx, program)

	nb.store.SetExecutionResult(id, Format(res.Output), res.Log)

	log := logging.Get(logging.CategoryNotebook).With("cell", id, "isolated", isolated)
	if res.Failed() {
		log.Info("run failed after %v: %v", res.Duration, res.Err)
	} else {
		log.Debug("ran %d segment(s) in %v", len(program.Segments), res.Duration)
	}
	logging.Audit().CellRun(id, isolated, len(program.Segments), res.Duration, res.Err)
}

// Cells returns a snapshot of the sequence for rendering.
func (nb *Notebook) Cells() []Cell {
	return nb.store.Cells()
}

// Cell returns a copy of one cell.
func (nb *Notebook) Cell(id string) (Cell, bool) {
	return nb.store.Get(id)
}

// Len returns the number of cells.
func (nb *Notebook) Len() int {
	return nb.store.Len()
}
