// Package cli holds the wordguessr commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordguessr/internal/config"
	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/words"
)

const defaultConfigFile = "config.yml"

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wordguessr",
		Short:         "WordGuessr is a word guessing game",
		Long:          `WordGuessr serves the word guessing game over HTTP or plays it in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "YAML config file (default ./config.yml if present)")
	root.PersistentFlags().Int("word-length", 0, "letters per word (overrides WORD_LENGTH)")
	root.PersistentFlags().Int("num-tries", 0, "tries per game (overrides NUM_TRIES)")

	root.AddCommand(newServeCommand(), newPlayCommand(), newEnvCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables wordguessr reads",
		Run: func(cmd *cobra.Command, _ []string) {
			config.Usage(cmd.OutOrStdout())
		},
	}
}

// loadConfig reads the config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" && config.FileExists(defaultConfigFile) {
		path = defaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("word-length") {
		cfg.WordLength, _ = cmd.Flags().GetInt("word-length")
	}
	if cmd.Flags().Changed("num-tries") {
		cfg.NumTries, _ = cmd.Flags().GetInt("num-tries")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}
	if cmd.Flags().Changed("daily") {
		if daily, _ := cmd.Flags().GetBool("daily"); daily {
			cfg.WordMode = config.ModeDaily
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the global one.
func newLogger(level, format string, w io.Writer) zerolog.Logger {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(w).With().Timestamp().Str("service", "wordguessr").Logger()
	log.Logger = logger
	return logger
}

// wordService loads the dictionary and wraps it for the configured mode.
func wordService(cfg *config.Config) (*words.Dictionary, game.WordService, error) {
	dict, err := words.Load(cfg.DictionaryFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	if n := dict.Stats()[cfg.WordLength]; n == 0 {
		return nil, nil, fmt.Errorf("dictionary has no %d-letter words", cfg.WordLength)
	}
	if cfg.WordMode != config.ModeDaily {
		return dict, dict, nil
	}
	salt, err := cfg.DeriveKey("daily")
	if err != nil {
		return nil, nil, err
	}
	return dict, words.NewDaily(dict, salt, time.Now), nil
}
