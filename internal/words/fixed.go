package words

import (
	"context"
	"fmt"
	"sync"

	"github.com/robalobadob/wordguessr/internal/game"
)

// Fixed is a WordService over a fixed list. GetRandomWord hands out the
// words of the requested length in list order, wrapping around. It is
// meant for tests and scripted games.
type Fixed struct {
	dict *Dictionary

	mu   sync.Mutex
	next map[int]int
}

var _ game.WordService = (*Fixed)(nil)

// NewFixed builds a Fixed service; every listed word is also a valid guess.
func NewFixed(list ...string) *Fixed {
	ws := make([]game.Word, len(list))
	for i, w := range list {
		ws[i] = game.Word{Text: w}
	}
	return &Fixed{dict: New(ws), next: make(map[int]int)}
}

// GetRandomWord returns the next listed word of the given length.
func (f *Fixed) GetRandomWord(ctx context.Context, length int) (game.Word, error) {
	candidates := f.dict.byLength[length]
	if len(candidates) == 0 {
		return game.Word{}, fmt.Errorf("%w: %d", game.ErrNoWordOfLength, length)
	}
	f.mu.Lock()
	i := f.next[length] % len(candidates)
	f.next[length] = i + 1
	f.mu.Unlock()
	return cloneWord(candidates[i]), nil
}

// ValidateWord reports whether text is one of the listed words.
func (f *Fixed) ValidateWord(ctx context.Context, text string) (bool, error) {
	return f.dict.ValidateWord(ctx, text)
}
