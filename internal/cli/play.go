package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/session"
	"github.com/robalobadob/wordguessr/internal/store"
)

const (
	colorCorrect = "#538d4e"
	colorPresent = "#b59f3b"
	colorAbsent  = "#3a3a3c"
)

func newPlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long:  `Reads guesses from stdin. Type :reset for a new word, :quit to exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger("warn", "console", cmd.ErrOrStderr())
			_, ws, err := wordService(cfg)
			if err != nil {
				return err
			}
			return Play(cmd.Context(), PlayOptions{
				Words:      ws,
				MaxTries:   cfg.NumTries,
				WordLength: cfg.WordLength,
				In:         cmd.InOrStdin(),
				Out:        termenv.NewOutput(cmd.OutOrStdout()),
				Logger:     logger,
			})
		},
	}
	cmd.Flags().Bool("daily", false, "play the word of the day")
	return cmd
}

// PlayOptions configures a terminal game.
type PlayOptions struct {
	Words      game.WordService
	MaxTries   int
	WordLength int
	In         io.Reader
	Out        *termenv.Output
	Logger     zerolog.Logger
}

// Play runs an interactive game until :quit or end of input.
func Play(ctx context.Context, opts PlayOptions) error {
	p := &player{
		out: opts.Out,
		sessions: session.NewManager(
			store.NewMemory(),
			game.NewController(opts.Words),
			session.WithDimensions(opts.MaxTries, opts.WordLength),
			session.WithLogger(opts.Logger),
		),
	}
	id, st, err := p.sessions.Start(ctx)
	if err != nil {
		return err
	}
	p.printf("WordGuessr: guess the %d-letter word in %d tries. :reset for a new word, :quit to exit.\n",
		st.WordLength, st.MaxTries)
	p.prompt()

	sc := bufio.NewScanner(opts.In)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
		case ":quit":
			return nil
		case ":reset":
			st, err = p.sessions.Reset(ctx, id)
			if err != nil {
				return err
			}
			p.printf("New word, %d letters.\n", st.WordLength)
		default:
			if err := p.guess(ctx, id, line); err != nil {
				return err
			}
		}
		p.prompt()
	}
	return sc.Err()
}

type player struct {
	out      *termenv.Output
	sessions *session.Manager
}

func (p *player) printf(format string, args ...any) { _, _ = fmt.Fprintf(p.out, format, args...) }

func (p *player) prompt() { p.printf("> ") }

func (p *player) guess(ctx context.Context, id, text string) error {
	res, st, err := p.sessions.Guess(ctx, id, text)
	switch {
	case errors.Is(err, game.ErrLengthMismatch):
		current, gerr := p.sessions.Get(ctx, id)
		if gerr != nil {
			return gerr
		}
		p.printf("Guess must be %d letters.\n", current.WordLength)
		return nil
	case err != nil:
		return err
	}

	switch res {
	case game.ResultInvalidWord:
		p.printf("%s is not in the dictionary.\n", strings.ToUpper(text))
	case game.ResultGameAlreadyOver:
		p.printf("The game is over. Type :reset to play again or :quit to exit.\n")
	case game.ResultContinue:
		p.render(st)
		p.printf("%d tries left.\n", st.MaxTries-st.TriesUsed())
	case game.ResultWon:
		p.render(st)
		p.printf("You won in %d tries! The word was %s.\n", st.TriesUsed(), st.SecretWord.Text)
		p.meanings(st.SecretWord)
	case game.ResultLost:
		p.render(st)
		p.printf("Out of tries. The word was %s.\n", st.SecretWord.Text)
		p.meanings(st.SecretWord)
	}
	return nil
}

// render prints the evaluated rows. Correct letters are bracketed, present
// ones parenthesized, so the grid reads without colour too.
func (p *player) render(st *game.GameState) {
	for _, row := range st.Grid.Rows {
		if len(row.Cells) == 0 || row.Cells[0].State == game.StateEmpty {
			continue
		}
		var b strings.Builder
		for _, c := range row.Cells {
			b.WriteString(p.cell(c))
		}
		p.printf("%s\n", b.String())
	}
}

func (p *player) cell(c game.Cell) string {
	letter := c.String()
	switch c.State {
	case game.StateCorrect:
		return p.out.String("[" + letter + "]").Background(p.out.Color(colorCorrect)).Bold().String()
	case game.StatePresent:
		return p.out.String("(" + letter + ")").Background(p.out.Color(colorPresent)).String()
	case game.StateAbsent:
		return p.out.String(" " + letter + " ").Background(p.out.Color(colorAbsent)).Faint().String()
	default:
		return " _ "
	}
}

func (p *player) meanings(w game.Word) {
	for _, m := range w.Meanings {
		p.printf("  - %s\n", m)
	}
}
