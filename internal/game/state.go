package game

// Status is the lifecycle state of a GameState.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// GameState holds one game: the grid, the secret word and the status.
// It is not safe for concurrent use; callers serialize access per game.
type GameState struct {
	Grid       Grid   `json:"grid"`
	SecretWord Word   `json:"secretWord"`
	MaxTries   int    `json:"maxTries"`
	WordLength int    `json:"wordLength"`
	Status     Status `json:"status"`
}

// NewGameState builds a fresh game in StatusPlaying with the cursor on row 0.
func NewGameState(secret Word, maxTries, wordLength int) *GameState {
	return &GameState{
		Grid:       NewGrid(maxTries, wordLength),
		SecretWord: secret,
		MaxTries:   maxTries,
		WordLength: wordLength,
		Status:     StatusPlaying,
	}
}

// IsOver reports whether the game reached a terminal status.
func (s *GameState) IsOver() bool {
	return s.Status == StatusWon || s.Status == StatusLost
}

// TriesUsed returns how many rows hold an evaluated guess.
func (s *GameState) TriesUsed() int {
	n := 0
	for _, r := range s.Grid.Rows {
		if len(r.Cells) > 0 && r.Cells[0].State != StateEmpty {
			n++
		}
	}
	return n
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Grid = s.Grid.clone()
	if s.SecretWord.Meanings != nil {
		out.SecretWord.Meanings = append([]string(nil), s.SecretWord.Meanings...)
	}
	return &out
}
