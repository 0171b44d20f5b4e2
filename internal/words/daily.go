package words

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/robalobadob/wordguessr/internal/game"
)

// Daily picks one word per length per UTC day, the same for every player.
// Validation delegates to the underlying dictionary.
type Daily struct {
	dict *Dictionary
	salt []byte
	now  func() time.Time
}

var _ game.WordService = (*Daily)(nil)

// NewDaily wraps dict. If now is nil, time.Now is used.
func NewDaily(dict *Dictionary, salt []byte, now func() time.Time) *Daily {
	if now == nil {
		now = time.Now
	}
	return &Daily{dict: dict, salt: salt, now: now}
}

// GetRandomWord returns today's word of the given length.
func (d *Daily) GetRandomWord(ctx context.Context, length int) (game.Word, error) {
	if err := ctx.Err(); err != nil {
		return game.Word{}, err
	}
	candidates := d.dict.byLength[length]
	if len(candidates) == 0 {
		return game.Word{}, fmt.Errorf("%w: %d", game.ErrNoWordOfLength, length)
	}
	return cloneWord(candidates[dayIndex(d.salt, d.now(), length, len(candidates))]), nil
}

// ValidateWord delegates to the dictionary.
func (d *Daily) ValidateWord(ctx context.Context, text string) (bool, error) {
	return d.dict.ValidateWord(ctx, text)
}

const dayLayout = "2006-01-02"

// dayIndex maps a UTC calendar day and word length onto [0, n). The mapping
// is keyed by salt, so the order cannot be guessed from the word list.
func dayIndex(salt []byte, day time.Time, length, n int) int {
	if n <= 0 {
		return 0
	}
	mac := hmac.New(sha256.New, salt)
	fmt.Fprintf(mac, "%s/%d", day.UTC().Format(dayLayout), length)
	return int(binary.BigEndian.Uint64(mac.Sum(nil)) % uint64(n))
}
