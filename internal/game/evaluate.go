package game

import "fmt"

// Evaluate scores guess against secret with the standard two-pass algorithm.
//
// Pass 1:
//   - Mark exact matches Correct; they consume their secret letter.
//   - Count the remaining (unconsumed) secret letters.
//
// Pass 2:
//   - For each non-correct guess letter: if an unconsumed occurrence
//     remains, mark Present and consume it; otherwise mark Absent.
//
// Letters are compared as opaque code points, so callers normalize case first.
func Evaluate(guess, secret []rune) ([]CellState, error) {
	if len(guess) != len(secret) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(guess), len(secret))
	}

	n := len(guess)
	res := make([]CellState, n)
	remaining := make(map[rune]int, n)

	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			res[i] = StateCorrect
		} else {
			remaining[secret[i]]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == StateCorrect {
			continue
		}
		if remaining[guess[i]] > 0 {
			res[i] = StatePresent
			remaining[guess[i]]--
		} else {
			res[i] = StateAbsent
		}
	}
	return res, nil
}

