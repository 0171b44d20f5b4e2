package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/store"
	"github.com/robalobadob/wordguessr/internal/words"
)

// slowStore adds latency to provoke races if locking is missing.
type slowStore struct {
	*store.Memory
	saves atomic.Int32
}

func (s *slowStore) Get(ctx context.Context, id string) (*game.GameState, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Memory.Get(ctx, id)
}

func (s *slowStore) Save(ctx context.Context, id string, g *game.GameState) error {
	time.Sleep(5 * time.Millisecond)
	s.saves.Add(1)
	return s.Memory.Save(ctx, id, g)
}

// flakyWords fails validation while down is set.
type flakyWords struct {
	*words.Fixed
	down atomic.Bool
}

var errDown = errors.New("dictionary down")

func (f *flakyWords) ValidateWord(ctx context.Context, text string) (bool, error) {
	if f.down.Load() {
		return false, errDown
	}
	return f.Fixed.ValidateWord(ctx, text)
}

type archiveSpy struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (a *archiveSpy) Record(_ context.Context, o Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, o)
	return nil
}

type observerSpy struct {
	mu       sync.Mutex
	started  int
	results  []game.GuessResult
	finished []game.Status
}

func (o *observerSpy) GameStarted(int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *observerSpy) GuessProcessed(r game.GuessResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, r)
}

func (o *observerSpy) GameFinished(s game.Status, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, s)
}

func newTestManager(t *testing.T, st store.Store, ws game.WordService, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithDimensions(3, 5)}, opts...)
	return NewManager(st, game.NewController(ws), opts...)
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	obs := &observerSpy{}
	m := newTestManager(t, store.NewMemory(), words.NewFixed("crane", "robot"), WithObserver(obs))

	// Given: a started session
	id, st, err := m.Start(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, "CRANE", st.SecretWord.Text)
	assert.Equal(t, 3, st.MaxTries)

	// When: a guess is applied
	res, after, err := m.Guess(ctx, id, "robot")
	require.NoError(t, err)
	assert.Equal(t, game.ResultContinue, res)
	assert.Equal(t, 1, after.Grid.CurrentRow)

	// Then: it is visible through Get
	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, after, got)

	// When: reset, the game is replaced wholesale
	fresh, err := m.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Grid.CurrentRow)
	assert.Equal(t, game.StatusPlaying, fresh.Status)
	assert.Equal(t, "ROBOT", fresh.SecretWord.Text)

	// When: ended, the session is gone
	require.NoError(t, m.End(ctx, id))
	_, err = m.Get(ctx, id)
	require.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, 2, obs.started)
	assert.Equal(t, []game.GuessResult{game.ResultContinue}, obs.results)
	assert.Zero(t, m.activeLocks())
}

func TestManager_UnknownSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory(), words.NewFixed("crane"))

	_, _, err := m.Guess(ctx, "missing", "crane")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Reset(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_StartFailsWithoutWord(t *testing.T) {
	m := NewManager(store.NewMemory(), game.NewController(words.NewFixed("crane")), WithDimensions(6, 7))

	_, _, err := m.Start(context.Background())
	require.ErrorIs(t, err, game.ErrNoWordOfLength)
}

func TestManager_ArchivesFinishedGameOnce(t *testing.T) {
	ctx := context.Background()
	archive := &archiveSpy{}
	obs := &observerSpy{}
	m := newTestManager(t, store.NewMemory(), words.NewFixed("crane", "robot"),
		WithArchive(archive), WithObserver(obs), WithIDGenerator(func() string { return "fixed-id" }))

	id, _, err := m.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, "fixed-id", id)

	for _, g := range []string{"robot", "robot", "robot"} {
		_, _, err := m.Guess(ctx, id, g)
		require.NoError(t, err)
	}
	res, _, err := m.Guess(ctx, id, "crane")
	require.NoError(t, err)
	assert.Equal(t, game.ResultGameAlreadyOver, res)

	require.Len(t, archive.outcomes, 1)
	o := archive.outcomes[0]
	assert.Equal(t, "fixed-id", o.SessionID)
	assert.Equal(t, "CRANE", o.Word)
	assert.Equal(t, game.StatusLost, o.Status)
	assert.Equal(t, 3, o.Tries)
	assert.Equal(t, []game.Status{game.StatusLost}, obs.finished)
}

func TestManager_NoSaveOnFailureOrNoop(t *testing.T) {
	ctx := context.Background()
	st := &slowStore{Memory: store.NewMemory()}
	ws := &flakyWords{Fixed: words.NewFixed("crane", "robot")}
	m := newTestManager(t, st, ws)

	id, before, err := m.Start(ctx)
	require.NoError(t, err)
	saves := st.saves.Load()

	// When: the dictionary fails mid-guess
	ws.down.Store(true)
	_, _, err = m.Guess(ctx, id, "robot")
	require.ErrorIs(t, err, errDown)
	ws.down.Store(false)

	// When: the guess is not a word
	res, _, err := m.Guess(ctx, id, "zzzzz")
	require.NoError(t, err)
	assert.Equal(t, game.ResultInvalidWord, res)

	// Then: nothing was written and the stored game is unchanged
	assert.Equal(t, saves, st.saves.Load())
	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, got)
}

func TestManager_SerializesGuessesPerSession(t *testing.T) {
	ctx := context.Background()
	st := &slowStore{Memory: store.NewMemory()}
	m := NewManager(st, game.NewController(words.NewFixed("crane", "robot")), WithDimensions(10, 5))

	id, _, err := m.Start(ctx)
	require.NoError(t, err)

	const guesses = 6
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Guess(ctx, id, "robot")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Then: no try was lost to an interleaved load/save
	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, guesses, got.Grid.CurrentRow)
	assert.Equal(t, guesses, got.TriesUsed())
	assert.Zero(t, m.activeLocks())
}

func TestManager_IndependentSessionsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory(), words.NewFixed("crane", "robot"))

	a, _, err := m.Start(ctx)
	require.NoError(t, err)
	b, _, err := m.Start(ctx)
	require.NoError(t, err)

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = m.WithLock(ctx, a, func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	// While a is locked, b still proceeds
	res, _, err := m.Guess(ctx, b, "robot")
	require.NoError(t, err)
	assert.Equal(t, game.ResultContinue, res)
	close(done)
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := newTestManager(t, store.NewRedis(client), words.NewFixed("crane", "robot"),
		WithLocker(store.NewRedisLocker(client, ""), time.Second))

	id, _, err := m.Start(ctx)
	require.NoError(t, err)

	res, st, err := m.Guess(ctx, id, "crane")
	require.NoError(t, err)
	assert.Equal(t, game.ResultWon, res)
	assert.Equal(t, game.StatusWon, st.Status)

	// the lock key is released after each operation
	keys := mr.Keys()
	assert.Len(t, keys, 1)
}

func TestManager_RejectsWrongLength(t *testing.T) {
	ctx := context.Background()
	st := &slowStore{Memory: store.NewMemory()}
	m := newTestManager(t, st, words.NewFixed("crane", "robot"))

	id, _, err := m.Start(ctx)
	require.NoError(t, err)
	saves := st.saves.Load()

	for _, g := range []string{"", "cran", "cranes"} {
		_, _, err := m.Guess(ctx, id, g)
		assert.ErrorIs(t, err, game.ErrLengthMismatch, g)
	}
	assert.Equal(t, saves, st.saves.Load())
}

func TestManager_FinishedGameIgnoresLength(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory(), words.NewFixed("crane"))

	id, _, err := m.Start(ctx)
	require.NoError(t, err)
	res, _, err := m.Guess(ctx, id, "crane")
	require.NoError(t, err)
	require.Equal(t, game.ResultWon, res)

	for _, g := range []string{"ab", "cranes", "crane"} {
		res, st, err := m.Guess(ctx, id, g)
		require.NoError(t, err, g)
		assert.Equal(t, game.ResultGameAlreadyOver, res, g)
		assert.Equal(t, game.StatusWon, st.Status)
	}
}

// brokenStore fails every write.
type brokenStore struct{ *store.Memory }

var errDisk = errors.New("disk full")

func (brokenStore) Save(context.Context, string, *game.GameState) error { return errDisk }

func TestManager_StoreFailure(t *testing.T) {
	m := newTestManager(t, brokenStore{store.NewMemory()}, words.NewFixed("crane"))

	_, _, err := m.Start(context.Background())
	require.ErrorIs(t, err, ErrStoreFailed)
	assert.ErrorIs(t, err, errDisk)
}
