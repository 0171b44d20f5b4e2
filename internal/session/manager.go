/*
Package session owns the table of active games.

A Manager maps session ids to GameStates held in a store.Store and makes
every operation on one session exclusive: load, mutate and save run under
a per-session lock, so two guesses on the same game never interleave while
independent sessions proceed in parallel.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/store"
)

var (
	// ErrSessionNotFound is returned for ids with no stored game.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreFailed wraps failures of the backing store or distributed lock.
	ErrStoreFailed = errors.New("session store failed")
)

// Locker serializes a session across processes (e.g. store.RedisLocker).
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (store.UnlockFunc, error)
}

// Outcome describes a finished game.
type Outcome struct {
	SessionID  string
	Word       string
	Status     game.Status
	Tries      int
	MaxTries   int
	WordLength int
	FinishedAt time.Time
}

// Archive receives finished games (e.g. history.Store).
type Archive interface {
	Record(ctx context.Context, o Outcome) error
}

// Observer is notified of game events (e.g. metrics.Recorder).
type Observer interface {
	GameStarted(wordLength int)
	GuessProcessed(result game.GuessResult)
	GameFinished(status game.Status, tries int)
}

type nopObserver struct{}

func (nopObserver) GameStarted(int)                 {}
func (nopObserver) GuessProcessed(game.GuessResult) {}
func (nopObserver) GameFinished(game.Status, int)   {}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access.
// It reference-counts per-session locks and drops them when unused.
type Manager struct {
	store      store.Store
	controller *game.Controller

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks by session id

	locker   Locker
	lockTTL  time.Duration
	archive  Archive
	observer Observer
	logger   zerolog.Logger

	maxTries   int
	wordLength int
	newID      func() string
	now        func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking. Locks expire after ttl
// (30s when ttl is not positive) if the holder never releases them.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = l
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithArchive records every finished game.
func WithArchive(a Archive) Option {
	return func(m *Manager) { m.archive = a }
}

// WithObserver reports game events, typically to metrics.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithLogger configures the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDimensions sets the size of new games.
func WithDimensions(maxTries, wordLength int) Option {
	return func(m *Manager) {
		m.maxTries = maxTries
		m.wordLength = wordLength
	}
}

// WithIDGenerator overrides session id generation (uuid v4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager creates a Manager. Games default to 6 tries of 6 letters.
func NewManager(st store.Store, c *game.Controller, opts ...Option) *Manager {
	m := &Manager{
		store:      st,
		controller: c,
		locks:      make(map[string]*lockEntry),
		lockTTL:    30 * time.Second,
		observer:   nopObserver{},
		logger:     zerolog.Nop(),
		maxTries:   6,
		wordLength: 6,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dimensions returns the (maxTries, wordLength) of new games.
func (m *Manager) Dimensions() (int, int) { return m.maxTries, m.wordLength }

// Start creates a game under a fresh session id.
func (m *Manager) Start(ctx context.Context) (string, *game.GameState, error) {
	st, err := m.controller.CreateNewGame(ctx, m.maxTries, m.wordLength)
	if err != nil {
		return "", nil, fmt.Errorf("create game: %w", err)
	}
	id := m.newID()
	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.save(ctx, id, st)
	})
	if err != nil {
		return "", nil, err
	}
	m.observer.GameStarted(st.WordLength)
	m.logger.Info().Str("session", id).Int("wordLength", st.WordLength).Int("maxTries", st.MaxTries).Msg("session started")
	return id, st.Clone(), nil
}

// Get returns a copy of the game for id.
func (m *Manager) Get(ctx context.Context, id string) (*game.GameState, error) {
	var st *game.GameState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		st, err = m.load(ctx, id)
		return err
	})
	return st, err
}

// Guess applies guess to the session's game as one exclusive step.
// On a finished game any guess yields ResultGameAlreadyOver. Otherwise a
// guess of the wrong length fails with game.ErrLengthMismatch before the
// dictionary is consulted. The game is saved only when ProcessGuess
// succeeds and changed something.
func (m *Manager) Guess(ctx context.Context, id, guess string) (game.GuessResult, *game.GameState, error) {
	var (
		res game.GuessResult
		st  *game.GameState
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		st, err = m.load(ctx, id)
		if err != nil {
			return err
		}
		if st.IsOver() {
			res = game.ResultGameAlreadyOver
			return nil
		}
		if n := utf8.RuneCountInString(guess); n != st.WordLength {
			return fmt.Errorf("%w: got %d letters, want %d", game.ErrLengthMismatch, n, st.WordLength)
		}
		res, err = m.controller.ProcessGuess(ctx, st, []rune(guess))
		if err != nil {
			return err
		}
		if res == game.ResultInvalidWord || res == game.ResultGameAlreadyOver {
			return nil
		}
		if err := m.save(ctx, id, st); err != nil {
			return err
		}
		if st.IsOver() {
			m.finish(ctx, id, st)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	m.observer.GuessProcessed(res)
	return res, st, nil
}

// Reset replaces the session's game with a new one of the same dimensions.
func (m *Manager) Reset(ctx context.Context, id string) (*game.GameState, error) {
	var st *game.GameState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		old, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		st, err = m.controller.CreateNewGame(ctx, old.MaxTries, old.WordLength)
		if err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		return m.save(ctx, id, st)
	})
	if err != nil {
		return nil, err
	}
	m.observer.GameStarted(st.WordLength)
	m.logger.Info().Str("session", id).Msg("session reset")
	return st.Clone(), nil
}

// End removes the session.
func (m *Manager) End(ctx context.Context, id string) error {
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("%w: delete game: %w", ErrStoreFailed, err)
		}
		return nil
	})
	if err == nil {
		m.logger.Info().Str("session", id).Msg("session ended")
	}
	return err
}

// WithLock runs fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStoreFailed, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn().Err(err).Str("session", id).Msg("release distributed lock (will expire via TTL)")
			}
		}()
	}

	return fn(ctx)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// activeLocks reports how many lock entries are live.
func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func (m *Manager) load(ctx context.Context, id string) (*game.GameState, error) {
	st, err := m.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load game: %w", ErrStoreFailed, err)
	}
	return st, nil
}

func (m *Manager) save(ctx context.Context, id string, st *game.GameState) error {
	if err := m.store.Save(ctx, id, st); err != nil {
		return fmt.Errorf("%w: save game: %w", ErrStoreFailed, err)
	}
	return nil
}

// finish archives a game that just reached a terminal status. Best effort.
func (m *Manager) finish(ctx context.Context, id string, st *game.GameState) {
	tries := st.TriesUsed()
	m.observer.GameFinished(st.Status, tries)
	m.logger.Info().Str("session", id).Str("status", string(st.Status)).Int("tries", tries).Msg("game finished")

	if m.archive == nil {
		return
	}
	err := m.archive.Record(ctx, Outcome{
		SessionID:  id,
		Word:       st.SecretWord.Text,
		Status:     st.Status,
		Tries:      tries,
		MaxTries:   st.MaxTries,
		WordLength: st.WordLength,
		FinishedAt: m.now().UTC(),
	})
	if err != nil {
		m.logger.Warn().Err(err).Str("session", id).Msg("archive outcome")
	}
}
