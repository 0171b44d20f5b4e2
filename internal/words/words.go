// internal/words/words.go
//
// Dictionary-backed WordService.
//
// Responsibilities:
//   - Load the dictionary from a JSON file or fall back to the embedded default.
//   - Index entries by text and by length for quick lookups.
//   - Supply GetRandomWord, ValidateWord, Lookup and Stats.
//
// Dictionary format:
//   A JSON object mapping each word to its meanings joined by "--":
//     {"crane": "A large wading bird--A machine for lifting loads"}
//
// Constraints:
//   • Words must consist of letters only (any script); others are skipped.
//   • Words are normalized to uppercase.
//   • Duplicate entries (after normalization) keep the first meanings seen.

package words

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/robalobadob/wordguessr/assets"
	"github.com/robalobadob/wordguessr/internal/game"
)

// ErrEmptyDictionary is returned when a dictionary holds no usable entries.
var ErrEmptyDictionary = errors.New("words: dictionary is empty")

// Dictionary is an immutable in-memory word list. Safe for concurrent use.
type Dictionary struct {
	index    map[string]game.Word
	byLength map[int][]game.Word
}

var _ game.WordService = (*Dictionary)(nil)

// Load reads the dictionary at path, or the embedded default when path is empty.
func Load(path string) (*Dictionary, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = assets.Dictionary()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON dictionary.
func Parse(data []byte) (*Dictionary, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}

	// map iteration order is random; sort so lookups by index are stable
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]game.Word, 0, len(keys))
	for _, k := range keys {
		list = append(list, game.Word{Text: k, Meanings: splitMeanings(raw[k])})
	}
	d := New(list)
	if len(d.index) == 0 {
		return nil, ErrEmptyDictionary
	}
	return d, nil
}

// New builds a dictionary from words, normalizing and filtering them.
func New(list []game.Word) *Dictionary {
	d := &Dictionary{
		index:    make(map[string]game.Word, len(list)),
		byLength: make(map[int][]game.Word),
	}
	for _, w := range list {
		w.Text = normalize(w.Text)
		if w.Text == "" || !isLetters(w.Text) {
			continue
		}
		if _, dup := d.index[w.Text]; dup {
			continue
		}
		d.index[w.Text] = w
		d.byLength[w.Len()] = append(d.byLength[w.Len()], w)
	}
	return d
}

// GetRandomWord returns a cryptographically random word of the given length.
func (d *Dictionary) GetRandomWord(ctx context.Context, length int) (game.Word, error) {
	if err := ctx.Err(); err != nil {
		return game.Word{}, err
	}
	candidates := d.byLength[length]
	if len(candidates) == 0 {
		return game.Word{}, fmt.Errorf("%w: %d", game.ErrNoWordOfLength, length)
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates))))
	if err != nil {
		return game.Word{}, fmt.Errorf("pick random word: %w", err)
	}
	return cloneWord(candidates[nBig.Int64()]), nil
}

// ValidateWord reports whether text is a dictionary entry (case-insensitive).
func (d *Dictionary) ValidateWord(ctx context.Context, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := d.index[normalize(text)]
	return ok, nil
}

// Lookup returns the entry for text, if any.
func (d *Dictionary) Lookup(text string) (game.Word, bool) {
	w, ok := d.index[normalize(text)]
	if !ok {
		return game.Word{}, false
	}
	return cloneWord(w), true
}

// Stats returns the number of entries per word length.
func (d *Dictionary) Stats() map[int]int {
	out := make(map[int]int, len(d.byLength))
	for n, list := range d.byLength {
		out[n] = len(list)
	}
	return out
}

// Len returns the total number of entries.
func (d *Dictionary) Len() int { return len(d.index) }

// splitMeanings splits a "--" separated definition string, dropping blanks.
func splitMeanings(s string) []string {
	var out []string
	for _, m := range strings.Split(s, "--") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// isLetters reports whether s is made of letters only.
func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func cloneWord(w game.Word) game.Word {
	if w.Meanings != nil {
		w.Meanings = append([]string(nil), w.Meanings...)
	}
	return w
}
