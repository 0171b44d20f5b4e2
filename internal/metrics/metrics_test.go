package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordguessr/internal/game"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.GameStarted(5)
	r.GameStarted(5)
	r.GuessProcessed(game.ResultContinue)
	r.GuessProcessed(game.ResultWon)
	r.GameFinished(game.StatusWon, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.started.WithLabelValues("5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.guesses.WithLabelValues("continue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.guesses.WithLabelValues("won")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.finished.WithLabelValues("won")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.tries))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.GuessProcessed(game.ResultInvalidWord)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wordguessr_guesses_total{result="invalid_word"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
