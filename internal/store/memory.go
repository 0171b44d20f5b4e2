// internal/store/memory.go
//
// In-memory implementation of the Store interface: the process-wide
// session table mapping session id → GameState.
//
// Characteristics:
//   - Created empty at startup; entries inserted on session start, removed on end.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Saves and loads deep copies, so callers never share a GameState with the table.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/wordguessr/internal/game"
)

// ErrNotFound is returned by Get when no game is stored under the id.
var ErrNotFound = errors.New("store: game not found")

// Store defines the persistence interface for game sessions.
// Implementations may be backed by memory (this file) or Redis.
type Store interface {
	// Save persists or replaces the game stored under id.
	Save(ctx context.Context, id string, g *game.GameState) error

	// Get retrieves the game stored under id.
	// Returns ErrNotFound if there is none.
	Get(ctx context.Context, id string) (*game.GameState, error)

	// Delete removes the game under id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Memory is a map-based Store.
type Memory struct {
	mu    sync.RWMutex               // guards games map
	games map[string]*game.GameState // keyed by session id
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{games: make(map[string]*game.GameState)}
}

// Save adds or replaces the game in the map.
func (m *Memory) Save(ctx context.Context, id string, g *game.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[id] = g.Clone()
	return nil
}

// Get looks up a game by id and returns a copy.
func (m *Memory) Get(ctx context.Context, id string) (*game.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g.Clone(), nil
	}
	return nil, ErrNotFound
}

// Delete removes the game under id.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}
