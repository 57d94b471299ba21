package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"nerdbook/internal/notebook"
	"nerdbook/internal/sandbox"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runTarget   int
	runIsolated bool
	runInactive []int
	runJSON     bool
	runStrict   bool
)

// errRunFailed reports an evaluation error under --strict.
var errRunFailed = errors.New("cell evaluation failed")

// runCmd executes one cell of a notebook assembled from files
var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Run a cell of a notebook built from files",
	Long: `Builds a notebook with one cell per file, in argument order, and runs one
of them. By default the last cell runs with context: every active cell before
it is executed first.

Examples:
  nerdbook run setup.go.txt use.go.txt
  nerdbook run --target 1 --isolated a.cell b.cell
  nerdbook run --inactive 2 a.cell b.cell c.cell --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCells,
}

func init() {
	runCmd.Flags().IntVarP(&runTarget, "target", "t", 0, "1-based cell to run (default: last)")
	runCmd.Flags().BoolVarP(&runIsolated, "isolated", "i", false, "Run the target without preceding cells")
	runCmd.Flags().IntSliceVar(&runInactive, "inactive", nil, "1-based cells to deactivate")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the run as JSON")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Exit non-zero when the cell fails")
}

// runReport is the --json output.
type runReport struct {
	Target   int             `json:"target"`
	Isolated bool            `json:"isolated"`
	Executed string          `json:"executed"`
	Cell     notebook.Cell   `json:"cell"`
	Cells    []notebook.Cell `json:"cells"`
}

func runCells(cmd *cobra.Command, args []string) error {
	nb := newNotebook(cfg)
	ids, err := loadCells(nb, args)
	if err != nil {
		return err
	}

	target := runTarget
	if target == 0 {
		target = len(ids)
	}
	if target < 1 || target > len(ids) {
		return fmt.Errorf("target %d out of range 1..%d", target, len(ids))
	}
	for _, n := range runInactive {
		if n < 1 || n > len(ids) {
			return fmt.Errorf("inactive cell %d out of range 1..%d", n, len(ids))
		}
		nb.SetCellActive(ids[n-1], false)
	}

	id := ids[target-1]
	executed := notebook.Resolve(nb.Cells(), id, runIsolated)
	logger.Debug("Running cell",
		zap.Int("target", target),
		zap.Bool("isolated", runIsolated),
		zap.Int("cells", len(ids)))

	cell, _ := nb.RunCell(cmd.Context(), id, runIsolated)

	out := cmd.OutOrStdout()
	if runJSON {
		err = writeJSON(out, runReport{
			Target:   target,
			Isolated: runIsolated,
			Executed: executed,
			Cell:     cell,
			Cells:    nb.Cells(),
		})
	} else {
		err = writePanes(out, cell)
	}
	if err != nil {
		return err
	}

	if runStrict && strings.HasPrefix(cell.Result, sandbox.ErrorPrefix) {
		return errRunFailed
	}
	return nil
}

// loadCells appends one cell per file and returns their ids in order.
func loadCells(nb *notebook.Notebook, files []string) ([]string, error) {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read cell %s: %w", filepath.Base(f), err)
		}
		c := nb.AddCell()
		nb.EditCell(c.ID, string(data))
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func writePanes(w io.Writer, cell notebook.Cell) error {
	_, panes, err := newPaneRenderer(cfg)
	if err != nil {
		return err
	}
	if rendered := panes.Render(cell.Result, cell.Log); rendered != "" {
		_, err = fmt.Fprintln(w, rendered)
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
