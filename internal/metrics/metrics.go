// Package metrics exposes game counters in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/session"
)

// Recorder implements session.Observer on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	started  *prometheus.CounterVec
	guesses  *prometheus.CounterVec
	finished *prometheus.CounterVec
	tries    prometheus.Histogram
}

var _ session.Observer = (*Recorder)(nil)

// NewRecorder registers the wordguessr collectors plus the Go runtime and
// process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordguessr_games_started_total",
				Help: "Games started, by word length.",
			},
			[]string{"word_length"},
		),
		guesses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordguessr_guesses_total",
				Help: "Processed guesses, by result.",
			},
			[]string{"result"},
		),
		finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordguessr_games_finished_total",
				Help: "Finished games, by status.",
			},
			[]string{"status"},
		),
		tries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wordguessr_tries_per_game",
			Help:    "Tries used by finished games.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
	}
	r.registry.MustRegister(
		r.started, r.guesses, r.finished, r.tries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) GameStarted(wordLength int) {
	r.started.WithLabelValues(strconv.Itoa(wordLength)).Inc()
}

func (r *Recorder) GuessProcessed(result game.GuessResult) {
	r.guesses.WithLabelValues(string(result)).Inc()
}

func (r *Recorder) GameFinished(status game.Status, tries int) {
	r.finished.WithLabelValues(string(status)).Inc()
	r.tries.Observe(float64(tries))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
