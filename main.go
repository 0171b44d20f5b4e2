// main.go
//
// Entry point for the wordguessr binary.
//   - wordguessr serve: JSON API (see internal/httpserver).
//   - wordguessr play:  terminal game.
//   - wordguessr env:   configuration reference.

package main

import "github.com/robalobadob/wordguessr/internal/cli"

func main() {
	cli.Execute()
}
