package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/session"
	"github.com/robalobadob/wordguessr/internal/store"
	"github.com/robalobadob/wordguessr/internal/words"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "data", "history.db")
	s, err := Open(context.Background(), dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dsn
}

func outcome(id string, status game.Status, tries int, at time.Time) session.Outcome {
	return session.Outcome{
		SessionID:  id,
		Word:       "CRANE",
		Status:     status,
		Tries:      tries,
		MaxTries:   6,
		WordLength: 5,
		FinishedAt: at,
	}
}

func TestStore_EmptyStats(t *testing.T) {
	s, _ := openTemp(t)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Played)
	assert.Empty(t, st.Distribution)
}

func TestStore_RecordAndStats(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seq := []session.Outcome{
		outcome("a", game.StatusWon, 3, base),
		outcome("b", game.StatusWon, 4, base.Add(time.Minute)),
		outcome("c", game.StatusLost, 6, base.Add(2*time.Minute)),
		outcome("d", game.StatusWon, 3, base.Add(3*time.Minute)),
	}
	for _, o := range seq {
		require.NoError(t, s.Record(ctx, o))
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Played)
	assert.Equal(t, 3, st.Won)
	assert.Equal(t, 1, st.Lost)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 2, st.MaxStreak)
	assert.Equal(t, map[int]int{3: 2, 4: 1}, st.Distribution)

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].SessionID)
	assert.Equal(t, "c", recent[1].SessionID)
	assert.Equal(t, game.StatusLost, recent[1].Status)
	assert.True(t, recent[1].FinishedAt.Equal(base.Add(2*time.Minute)))
}

func TestStore_SubSecondOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	base := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)

	// Given: finishes within one second, one of them on a whole second
	require.NoError(t, s.Record(ctx, outcome("loss", game.StatusLost, 6, base)))
	require.NoError(t, s.Record(ctx, outcome("win1", game.StatusWon, 2, base.Add(100*time.Millisecond))))
	require.NoError(t, s.Record(ctx, outcome("win2", game.StatusWon, 3, base.Add(150*time.Millisecond))))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 2, st.MaxStreak)

	recent, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"win2", "win1", "loss"},
		[]string{recent[0].SessionID, recent[1].SessionID, recent[2].SessionID})
	assert.True(t, recent[2].FinishedAt.Equal(base))
}

func TestStore_RejectsUnfinished(t *testing.T) {
	s, _ := openTemp(t)

	err := s.Record(context.Background(), outcome("a", game.StatusPlaying, 1, time.Now()))
	require.Error(t, err)
}

func TestStore_ReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	ctx := context.Background()
	s, dsn := openTemp(t)
	require.NoError(t, s.Record(ctx, outcome("a", game.StatusWon, 2, time.Now())))
	require.NoError(t, s.Close())

	again, err := Open(ctx, dsn, zerolog.Nop())
	require.NoError(t, err)
	defer again.Close()

	st, err := again.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Played)
}

func TestStore_WithSessionManager(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	m := session.NewManager(
		store.NewMemory(),
		game.NewController(words.NewFixed("crane")),
		session.WithDimensions(2, 5),
		session.WithArchive(s),
	)
	id, _, err := m.Start(ctx)
	require.NoError(t, err)
	res, _, err := m.Guess(ctx, id, "crane")
	require.NoError(t, err)
	require.Equal(t, game.ResultWon, res)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Won)
	assert.Equal(t, map[int]int{1: 1}, st.Distribution)
}
