package httpserver

import "github.com/robalobadob/wordguessr/internal/game"

type cellView struct {
	Letter  string         `json:"letter"`
	State   game.CellState `json:"state"`
	Enabled bool           `json:"enabled"`
}

type rowView struct {
	Enabled bool       `json:"enabled"`
	Cells   []cellView `json:"cells"`
}

type secretView struct {
	Word     string   `json:"word"`
	Meanings []string `json:"meanings"`
}

// gameView is the client-facing shape of a GameState.
type gameView struct {
	Status     game.Status `json:"status"`
	CurrentRow int         `json:"currentRow"`
	MaxTries   int         `json:"maxTries"`
	WordLength int         `json:"wordLength"`
	TriesUsed  int         `json:"triesUsed"`
	Rows       []rowView   `json:"rows"`
	Secret     *secretView `json:"secret,omitempty"` // only once the game is over
}

func newGameView(st *game.GameState) gameView {
	v := gameView{
		Status:     st.Status,
		CurrentRow: st.Grid.CurrentRow,
		MaxTries:   st.MaxTries,
		WordLength: st.WordLength,
		TriesUsed:  st.TriesUsed(),
		Rows:       make([]rowView, len(st.Grid.Rows)),
	}
	for i, row := range st.Grid.Rows {
		cells := make([]cellView, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = cellView{Letter: c.String(), State: c.State, Enabled: c.Enabled}
		}
		v.Rows[i] = rowView{Enabled: row.Enabled, Cells: cells}
	}
	if st.IsOver() {
		meanings := st.SecretWord.Meanings
		if meanings == nil {
			meanings = []string{}
		}
		v.Secret = &secretView{Word: st.SecretWord.Text, Meanings: meanings}
	}
	return v
}
