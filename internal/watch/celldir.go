// Package watch mirrors a directory of cell files into a notebook.
//
// Every file matching the pattern (default "*.cell") becomes one cell. Cells
// are ordered by file name with a leading underscore ignored; the underscore
// marks the cell inactive, so renaming a.cell to _a.cell toggles it.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"nerdbook/internal/logging"
	"nerdbook/internal/notebook"

	"github.com/fsnotify/fsnotify"
)

// InactivePrefix marks a cell file whose cell is inactive.
const InactivePrefix = "_"

// CellDir keeps a notebook in step with a directory and re-runs the last
// cell contextually whenever the directory settles after a change.
type CellDir struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	nb          *notebook.Notebook
	dir         string
	pattern     string
	entries     []entry // current mirror, in notebook order
	debounceMap map[string]time.Time
	debounceDur time.Duration
	onRun       func(notebook.Cell)
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// entry ties a cell to the file it mirrors.
type entry struct {
	key    string // file name without the inactive prefix
	file   string
	cellID string
	source string
	active bool
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Syncs         int
	Runs          int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// SyncReport counts the notebook mutations one Sync made.
type SyncReport struct {
	Added   int
	Edited  int
	Removed int
	Toggled int
}

// Changed reports whether the sync touched the notebook.
func (r SyncReport) Changed() bool {
	return r.Added+r.Edited+r.Removed+r.Toggled > 0
}

// Option configures a CellDir.
type Option func(*CellDir)

// WithPattern sets the glob that selects cell files.
func WithPattern(pattern string) Option {
	return func(cd *CellDir) {
		cd.pattern = pattern
	}
}

// WithDebounce sets how long the directory must stay quiet before a re-run.
func WithDebounce(d time.Duration) Option {
	return func(cd *CellDir) {
		cd.debounceDur = d
	}
}

// WithOnRun registers a callback invoked with the last cell after each run.
func WithOnRun(fn func(notebook.Cell)) Option {
	return func(cd *CellDir) {
		cd.onRun = fn
	}
}

// NewCellDir creates a mirror of dir into nb. The notebook should start
// empty; the mirror owns every cell it adds.
func NewCellDir(dir string, nb *notebook.Notebook, opts ...Option) (*CellDir, error) {
	cd := &CellDir{
		nb:          nb,
		dir:         dir,
		pattern:     defaultPattern,
		debounceMap: make(map[string]time.Time),
		debounceDur: 300 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cd)
	}
	if _, err := filepath.Match(cd.pattern, "x.cell"); err != nil {
		return nil, fmt.Errorf("invalid cell pattern %q: %w", cd.pattern, err)
	}
	return cd, nil
}

const defaultPattern = "*.cell"

// scan lists the cell files in name order. When both a.cell and _a.cell
// exist the active file wins.
func (cd *CellDir) scan() ([]entry, error) {
	dirEntries, err := os.ReadDir(cd.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cell directory: %w", err)
	}

	byKey := make(map[string]entry)
	for _, de := range dirEntries {
		if de.IsDir() || !cd.matches(de.Name()) {
			continue
		}
		name := de.Name()
		e := entry{
			key:    strings.TrimPrefix(name, InactivePrefix),
			file:   name,
			active: !strings.HasPrefix(name, InactivePrefix),
		}
		data, err := os.ReadFile(filepath.Join(cd.dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue // removed between ReadDir and ReadFile
			}
			return nil, fmt.Errorf("failed to read cell file: %w", err)
		}
		e.source = string(data)

		if prev, dup := byKey[e.key]; dup {
			logging.Get(logging.CategoryWatch).Warn("both %s and %s exist; using the active one", prev.file, e.file)
			if prev.active {
				continue
			}
		}
		byKey[e.key] = e
	}

	out := make([]entry, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, nil
}

func (cd *CellDir) matches(name string) bool {
	ok, _ := filepath.Match(cd.pattern, name)
	return ok
}

// Sync reconciles the notebook with the directory.
func (cd *CellDir) Sync() (SyncReport, error) {
	want, err := cd.scan()
	if err != nil {
		cd.mu.Lock()
		cd.stats.Errors++
		cd.mu.Unlock()
		return SyncReport{}, err
	}

	cd.mu.Lock()
	defer cd.mu.Unlock()

	var report SyncReport
	wanted := make(map[string]bool, len(want))
	for _, e := range want {
		wanted[e.key] = true
	}

	// Drop cells whose file is gone.
	kept := cd.entries[:0]
	for _, e := range cd.entries {
		if wanted[e.key] {
			kept = append(kept, e)
			continue
		}
		cd.nb.DeleteCell(e.cellID)
		report.Removed++
	}
	cd.entries = kept

	// Cells only append, so a new file sorting before an existing one
	// forces a rebuild.
	if !isPrefix(cd.entries, want) {
		for _, e := range cd.entries {
			cd.nb.DeleteCell(e.cellID)
			report.Removed++
		}
		cd.entries = nil
	}

	for i, w := range want {
		if i >= len(cd.entries) {
			c := cd.nb.AddCell()
			cd.nb.EditCell(c.ID, w.source)
			if !w.active {
				cd.nb.SetCellActive(c.ID, false)
			}
			w.cellID = c.ID
			cd.entries = append(cd.entries, w)
			report.Added++
			continue
		}

		cur := &cd.entries[i]
		if cur.source != w.source {
			cd.nb.EditCell(cur.cellID, w.source)
			cur.source = w.source
			report.Edited++
		}
		if cur.active != w.active {
			cd.nb.SetCellActive(cur.cellID, w.active)
			cur.active = w.active
			report.Toggled++
		}
		cur.file = w.file
	}

	cd.stats.Syncs++
	logging.WatchDebug("sync %s: +%d ~%d -%d toggled %d",
		cd.dir, report.Added, report.Edited, report.Removed, report.Toggled)
	return report, nil
}

// isPrefix reports whether the keys of have lead the keys of want in order.
func isPrefix(have, want []entry) bool {
	if len(have) > len(want) {
		return false
	}
	for i := range have {
		if have[i].key != want[i].key {
			return false
		}
	}
	return true
}

// RunLast runs the last cell with context and reports it. It returns false
// when the directory holds no cells.
func (cd *CellDir) RunLast(ctx context.Context) (notebook.Cell, bool) {
	cd.mu.RLock()
	if len(cd.entries) == 0 {
		cd.mu.RUnlock()
		return notebook.Cell{}, false
	}
	id := cd.entries[len(cd.entries)-1].cellID
	onRun := cd.onRun
	cd.mu.RUnlock()

	c, ok := cd.nb.RunCell(ctx, id, false)
	if !ok {
		return notebook.Cell{}, false
	}

	cd.mu.Lock()
	cd.stats.Runs++
	cd.mu.Unlock()

	if onRun != nil {
		onRun(c)
	}
	return c, true
}

// Refresh syncs and, when anything changed (or force is set), re-runs the
// last cell.
func (cd *CellDir) Refresh(ctx context.Context, force bool) (SyncReport, error) {
	report, err := cd.Sync()
	if err != nil {
		return report, err
	}
	if report.Changed() || force {
		cd.RunLast(ctx)
	}
	return report, nil
}

// Files returns the mirrored file names in notebook order.
func (cd *CellDir) Files() []string {
	cd.mu.RLock()
	defer cd.mu.RUnlock()

	out := make([]string, len(cd.entries))
	for i, e := range cd.entries {
		out[i] = e.file
	}
	return out
}

// FileFor returns the file a cell mirrors.
func (cd *CellDir) FileFor(cellID string) (string, bool) {
	cd.mu.RLock()
	defer cd.mu.RUnlock()

	for _, e := range cd.entries {
		if e.cellID == cellID {
			return e.file, true
		}
	}
	return "", false
}

// GetStats returns a copy of the activity counters.
func (cd *CellDir) GetStats() Stats {
	cd.mu.RLock()
	defer cd.mu.RUnlock()
	return cd.stats
}

// Start performs an initial refresh and begins watching the directory.
// It is non-blocking; the event loop runs until ctx ends or Stop is called.
func (cd *CellDir) Start(ctx context.Context) error {
	cd.mu.Lock()
	if cd.running {
		cd.mu.Unlock()
		return nil // Already running
	}
	cd.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(cd.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", cd.dir, err)
	}

	if _, err := cd.Refresh(ctx, true); err != nil {
		watcher.Close()
		return err
	}

	cd.mu.Lock()
	cd.watcher = watcher
	cd.stopCh = make(chan struct{})
	cd.doneCh = make(chan struct{})
	cd.running = true
	stop, done := cd.stopCh, cd.doneCh
	cd.mu.Unlock()

	logging.Watch("watching %s for %s", cd.dir, cd.pattern)
	go cd.run(ctx, watcher, stop, done)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit. A stopped
// CellDir can be started again.
func (cd *CellDir) Stop() {
	cd.mu.Lock()
	if !cd.running {
		cd.mu.Unlock()
		return
	}
	cd.running = false
	watcher, stop, done := cd.watcher, cd.stopCh, cd.doneCh
	cd.watcher = nil
	cd.mu.Unlock()

	close(stop)
	<-done

	if err := watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("stopped watching %s", cd.dir)
}

// Done is closed when the event loop exits.
func (cd *CellDir) Done() <-chan struct{} {
	cd.mu.RLock()
	defer cd.mu.RUnlock()
	return cd.doneCh
}

// run is the main event loop.
func (cd *CellDir) run(ctx context.Context, watcher *fsnotify.Watcher, stop <-chan struct{}, done chan struct{}) {
	defer close(done)

	tick := 100 * time.Millisecond
	if cd.debounceDur < tick {
		tick = cd.debounceDur/2 + time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
			return

		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			cd.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			cd.mu.Lock()
			cd.stats.Errors++
			cd.mu.Unlock()

		case <-debounceTicker.C:
			cd.processDebouncedEvents(ctx)
		}
	}
}

// handleEvent records a relevant event for debounced processing.
func (cd *CellDir) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod || !cd.matches(filepath.Base(event.Name)) {
		return
	}
	logging.WatchDebug("%s %s", event.Op, event.Name)

	cd.mu.Lock()
	cd.stats.Events++
	cd.stats.LastEventPath = event.Name
	cd.stats.LastEventTime = time.Now()
	cd.debounceMap[event.Name] = time.Now()
	cd.mu.Unlock()
}

// processDebouncedEvents refreshes once every pending event has settled.
func (cd *CellDir) processDebouncedEvents(ctx context.Context) {
	cd.mu.Lock()
	if len(cd.debounceMap) == 0 {
		cd.mu.Unlock()
		return
	}
	now := time.Now()
	for _, t := range cd.debounceMap {
		if now.Sub(t) < cd.debounceDur {
			cd.mu.Unlock()
			return
		}
	}
	cd.debounceMap = make(map[string]time.Time)
	cd.mu.Unlock()

	if _, err := cd.Refresh(ctx, false); err != nil {
		logging.Get(logging.CategoryWatch).Error("refresh failed: %v", err)
	}
}
