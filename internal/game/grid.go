package game

import "errors"

// ErrNoMoreRows is returned by AdvanceRow when the cursor sits on the last row.
var ErrNoMoreRows = errors.New("no more rows")

// Grid is the ordered set of rows plus the cursor on the active attempt.
type Grid struct {
	Rows       []Row `json:"rows"`
	CurrentRow int   `json:"currentRow"`
}

// NewGrid builds maxTries rows of wordLength cells. Only row 0 is enabled.
func NewGrid(maxTries, wordLength int) Grid {
	rows := make([]Row, maxTries)
	for i := range rows {
		rows[i] = NewRow(wordLength, i == 0)
	}
	return Grid{Rows: rows}
}

// CanAdvance reports whether a row exists after the current one.
func (g *Grid) CanAdvance() bool {
	return g.CurrentRow < len(g.Rows)-1
}

// Current returns the row under the cursor.
func (g *Grid) Current() *Row {
	return &g.Rows[g.CurrentRow]
}

// AdvanceRow locks the current row and moves the cursor forward.
// The row being left is disabled even when there is nowhere to go;
// in that case ErrNoMoreRows is returned and the cursor stays put.
func (g *Grid) AdvanceRow() error {
	g.Rows[g.CurrentRow].SetEnabled(false)
	if !g.CanAdvance() {
		return ErrNoMoreRows
	}
	g.CurrentRow++
	g.Rows[g.CurrentRow].SetEnabled(true)
	return nil
}

// clone returns a deep copy of the grid.
func (g Grid) clone() Grid {
	rows := make([]Row, len(g.Rows))
	for i, r := range g.Rows {
		cells := make([]Cell, len(r.Cells))
		copy(cells, r.Cells)
		rows[i] = Row{Cells: cells, Enabled: r.Enabled}
	}
	return Grid{Rows: rows, CurrentRow: g.CurrentRow}
}
