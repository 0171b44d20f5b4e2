// internal/config/config.go
//
// Runtime configuration for wordguessr.
// Values come from, in increasing priority: env-default tags, an optional
// YAML file, a .env file in the working directory, and the environment.

package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

const devSecret = "dev_secret_change_me"

// Word selection modes.
const (
	ModeRandom = "random"
	ModeDaily  = "daily"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	LogLevel  string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log-format" env:"LOG_FORMAT" env-default:"json"`
	Port      string `yaml:"port" env:"PORT" env-default:"5175"`

	WordLength     int    `yaml:"word-length" env:"WORD_LENGTH" env-default:"6"`
	NumTries       int    `yaml:"num-tries" env:"NUM_TRIES" env-default:"6"`
	WordMode       string `yaml:"word-mode" env:"WORD_MODE" env-default:"random"`
	DictionaryFile string `yaml:"dictionary-file" env:"WORDS_DICTIONARY_FILE"`

	Store      string        `yaml:"store" env:"STORE" env-default:"memory"`
	Redis      Redis         `yaml:"redis"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"24h"`
	HistoryDSN string        `yaml:"history-dsn" env:"HISTORY_DSN"`

	Secret       string `yaml:"secret" env:"SECRET" env-default:"dev_secret_change_me"`
	ClientOrigin string `yaml:"client-origin" env:"CLIENT_ORIGIN" env-default:"http://localhost:5173"`
	CookieSecure bool   `yaml:"cookie-secure" env:"COOKIE_SECURE" env-default:"false"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"wordguessr:session:"`
}

// Load reads .env (if present), then path (if non-empty), then the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and game dimensions.
func (c *Config) Validate() error {
	var errs []error
	if c.WordLength < 1 {
		errs = append(errs, fmt.Errorf("WORD_LENGTH must be at least 1, got %d", c.WordLength))
	}
	if c.NumTries < 1 {
		errs = append(errs, fmt.Errorf("NUM_TRIES must be at least 1, got %d", c.NumTries))
	}
	if c.WordMode != ModeRandom && c.WordMode != ModeDaily {
		errs = append(errs, fmt.Errorf("WORD_MODE must be %q or %q, got %q", ModeRandom, ModeDaily, c.WordMode))
	}
	if c.Store != StoreMemory && c.Store != StoreRedis {
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.Store))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("SECRET must not be empty"))
	}
	return errors.Join(errs...)
}

// InsecureSecret reports whether the built-in development secret is in use.
func (c *Config) InsecureSecret() bool { return c.Secret == devSecret }

// DeriveKey returns a 32-byte key for purpose, derived from Secret with HKDF-SHA256.
// Distinct purposes yield independent keys.
func (c *Config) DeriveKey(purpose string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(c.Secret), nil, []byte("wordguessr/"+purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// Usage writes the environment variable reference to w.
func Usage(w io.Writer) {
	cleanenv.FUsage(w, &Config{}, nil)()
}

// FileExists reports whether path names a readable file.
func FileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
