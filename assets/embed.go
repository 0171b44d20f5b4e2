package assets

import "embed"

//go:embed dictionary.json
var FS embed.FS

// Dictionary returns the embedded default dictionary: a JSON object mapping
// each word to its meanings joined by "--".
func Dictionary() ([]byte, error) {
	return FS.ReadFile("dictionary.json")
}
