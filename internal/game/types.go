// internal/game/types.go
//
// Core type definitions for the guessing grid.
// Defines:
//   - CellState: per-letter feedback (empty/correct/present/absent).
//   - Cell: a single letter slot.
//   - Row: the cells of one guess attempt.
//   - Word: a dictionary entry as handed out by a WordService.

package game

import (
	"context"
	"unicode/utf8"
)

// CellState represents the evaluation result for a single letter.
// Possible values:
//   - "empty":   not evaluated yet.
//   - "correct": letter is in the secret word at this position.
//   - "present": letter is in the secret word at another position.
//   - "absent":  letter does not occur (or all occurrences are used up).
type CellState string

const (
	StateEmpty   CellState = "empty"
	StateCorrect CellState = "correct"
	StatePresent CellState = "present"
	StateAbsent  CellState = "absent"
)

// Cell is one letter slot of a row.
type Cell struct {
	Letter  rune      `json:"letter"`  // 0 while unset
	State   CellState `json:"state"`   // StateEmpty until the row is evaluated
	Enabled bool      `json:"enabled"` // accepts input
}

// HasLetter reports whether a letter has been written into the cell.
func (c Cell) HasLetter() bool { return c.Letter != 0 }

// String returns the cell letter, or "" when unset.
func (c Cell) String() string {
	if c.Letter == 0 {
		return ""
	}
	return string(c.Letter)
}

// Row holds the cells of one guess attempt.
type Row struct {
	Cells   []Cell `json:"cells"`
	Enabled bool   `json:"enabled"`
}

// NewRow builds a row of length empty cells, each carrying the row's enabled flag.
func NewRow(length int, enabled bool) Row {
	cells := make([]Cell, length)
	for i := range cells {
		cells[i] = Cell{State: StateEmpty, Enabled: enabled}
	}
	return Row{Cells: cells, Enabled: enabled}
}

// SetEnabled sets the row flag and propagates it to every cell.
func (r *Row) SetEnabled(enabled bool) {
	r.Enabled = enabled
	for i := range r.Cells {
		r.Cells[i].Enabled = enabled
	}
}

// Word returns the letters written into the row so far.
func (r Row) Word() string {
	buf := make([]rune, 0, len(r.Cells))
	for _, c := range r.Cells {
		if c.HasLetter() {
			buf = append(buf, c.Letter)
		}
	}
	return string(buf)
}

// Word is a dictionary entry. Text is always uppercase.
type Word struct {
	Text     string   `json:"text"`
	Meanings []string `json:"meanings,omitempty"`
}

// Len returns the number of letters (code points) in the word.
func (w Word) Len() int { return utf8.RuneCountInString(w.Text) }

func (w Word) String() string { return w.Text }

// WordService is the dictionary capability the controller depends on.
// Implementations may block on disk or network I/O.
type WordService interface {
	// GetRandomWord returns a word of the given length.
	// Fails with ErrNoWordOfLength if the dictionary has none.
	GetRandomWord(ctx context.Context, length int) (Word, error)

	// ValidateWord reports whether text (case-insensitive) is a dictionary entry.
	ValidateWord(ctx context.Context, text string) (bool, error)
}
