package notebook

import "nerdbook/internal/sandbox"

// Resolve returns the exact text a run of targetID executes.
//
// An isolated run is the target's source alone. A contextual run is the
// source of every active cell up to and including the target, each followed
// by a newline, in sequence order. The target always contributes, even when
// it is inactive. An unknown target resolves to "".
func Resolve(cells []Cell, targetID string, isolated bool) string {
	return ResolveProgram(cells, targetID, isolated).Text()
}

// ResolveProgram selects the same sources as Resolve but keeps one segment
// per contributing cell.
func ResolveProgram(cells []Cell, targetID string, isolated bool) sandbox.Program {
	target := -1
	for i := range cells {
		if cells[i].ID == targetID {
			target = i
			break
		}
	}
	if target < 0 {
		return sandbox.Program{}
	}
	if isolated {
		return sandbox.Source(cells[target].Source)
	}

	p := sandbox.Program{Accumulated: true}
	for i := 0; i <= target; i++ {
		if cells[i].Active || i == target {
			p.Segments = append(p.Segments, cells[i].Source)
		}
	}
	return p
}
