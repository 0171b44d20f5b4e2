// internal/game/engine.go
//
// Core game engine for a single guessing session.
// Responsibilities:
//   - Create new games with a secret word fetched from a WordService.
//   - Validate guesses against the dictionary (without consuming a try).
//   - Score guesses using the two-pass duplicate-aware algorithm.
//   - Drive row advancement and the playing → won/lost transitions.
//
// Notes:
//   - The controller holds no per-game state; every mutation lands on the
//     *GameState passed in, and callers serialize access per game.
//   - Collaborator failures are returned as errors and leave the game untouched.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrLengthMismatch    = errors.New("guess length does not match word length")
	ErrNoWordOfLength    = errors.New("no word of requested length")
	ErrInvalidDimensions = errors.New("invalid game dimensions")
)

// GuessResult is the outcome of ProcessGuess, meant for choosing what to render.
type GuessResult string

const (
	ResultWon             GuessResult = "won"
	ResultLost            GuessResult = "lost"
	ResultContinue        GuessResult = "continue"
	ResultInvalidWord     GuessResult = "invalid_word"
	ResultGameAlreadyOver GuessResult = "game_already_over"
)

// Controller orchestrates game creation and guess processing.
type Controller struct {
	words  WordService
	logger zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for debug tracing of guesses.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController builds a controller around the given word service.
func NewController(ws WordService, opts ...Option) *Controller {
	c := &Controller{words: ws, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateNewGame fetches a secret word of wordLength and returns a fresh game.
func (c *Controller) CreateNewGame(ctx context.Context, maxTries, wordLength int) (*GameState, error) {
	if maxTries < 1 || wordLength < 1 {
		return nil, fmt.Errorf("%w: %d tries x %d letters", ErrInvalidDimensions, maxTries, wordLength)
	}
	secret, err := c.words.GetRandomWord(ctx, wordLength)
	if err != nil {
		return nil, fmt.Errorf("get random word: %w", err)
	}
	if n := secret.Len(); n != wordLength {
		return nil, fmt.Errorf("%w: word service returned %d letters, want %d", ErrNoWordOfLength, n, wordLength)
	}
	secret.Text = strings.ToUpper(secret.Text)
	return NewGameState(secret, maxTries, wordLength), nil
}

// ProcessGuess applies one guess to state.
//
// Order of checks:
//  1. A finished game returns ResultGameAlreadyOver untouched.
//  2. A guess the dictionary rejects returns ResultInvalidWord untouched.
//  3. The guess is scored and written into the current row.
//  4. An exact match locks the row and wins, before any advancement.
//  5. Otherwise the grid advances; running out of rows loses.
func (c *Controller) ProcessGuess(ctx context.Context, state *GameState, guess []rune) (GuessResult, error) {
	if state.IsOver() {
		return ResultGameAlreadyOver, nil
	}

	word := strings.ToUpper(string(guess))
	ok, err := c.words.ValidateWord(ctx, word)
	if err != nil {
		return "", fmt.Errorf("validate word: %w", err)
	}
	if !ok {
		c.logger.Debug().Str("guess", word).Msg("rejected guess")
		return ResultInvalidWord, nil
	}

	letters := []rune(word)
	states, err := Evaluate(letters, []rune(state.SecretWord.Text))
	if err != nil {
		return "", err
	}

	row := state.Grid.Current()
	for i, st := range states {
		row.Cells[i].Letter = letters[i]
		row.Cells[i].State = st
	}

	if word == state.SecretWord.Text {
		row.SetEnabled(false)
		state.Status = StatusWon
		c.logger.Debug().Int("row", state.Grid.CurrentRow).Msg("game won")
		return ResultWon, nil
	}

	if err := state.Grid.AdvanceRow(); err != nil {
		if errors.Is(err, ErrNoMoreRows) {
			state.Status = StatusLost
			c.logger.Debug().Int("row", state.Grid.CurrentRow).Msg("game lost")
			return ResultLost, nil
		}
		return "", err
	}
	return ResultContinue, nil
}
