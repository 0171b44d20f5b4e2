// internal/httpserver/server.go
//
// HTTP server wiring for wordguessr.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/debug/words", "/metrics", "/stats".
//   - Session endpoints: POST /game/new issues a session token; the rest of
//     /game requires one (cookie or bearer).
//
// Notes:
//   - Handlers never echo internal errors; details go to the request logger.
//   - The secret word is only part of the game view once the game is over.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/history"
	"github.com/robalobadob/wordguessr/internal/session"
)

// WordStats reports dictionary sizes by word length.
type WordStats interface {
	Stats() map[int]int
}

// HistoryReader is the read side of the outcome archive.
type HistoryReader interface {
	Stats(ctx context.Context) (history.Stats, error)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Config holds the server's collaborators. History and Metrics are optional.
type Config struct {
	Sessions     *session.Manager
	Tokens       *Tokens
	Words        WordStats
	History      HistoryReader
	Metrics      http.Handler
	Logger       zerolog.Logger
	ClientOrigin string
	Timeout      time.Duration
}

// Server bundles the router and its collaborators.
type Server struct {
	r        *chi.Mux
	sessions *session.Manager
	tokens   *Tokens
	words    WordStats
	history  HistoryReader
	logger   zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ClientOrigin == "" {
		cfg.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{
		r:        chi.NewRouter(),
		sessions: cfg.Sessions,
		tokens:   cfg.Tokens,
		words:    cfg.Words,
		history:  cfg.History,
		logger:   cfg.Logger,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog(cfg.Logger)...)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(cfg.Timeout))
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "wordguessr",
			"endpoints": []string{
				"/health", "POST /game/new", "GET /game", "POST /game/guess",
				"POST /game/reset", "DELETE /game", "/stats", "/metrics",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/words", s.handleWordStats)
	s.r.Get("/stats", s.handleStats)
	if cfg.Metrics != nil {
		s.r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	// --- game ---
	s.r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleGetGame)
			r.Post("/guess", s.handleGuess)
			r.Post("/reset", s.handleReset)
			r.Delete("/", s.handleEndGame)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("graceful shutdown did not complete")
			return srv.Close()
		}
		return nil
	}
}

// ------------------------------ GAME ---------------------------------------

type newGameRes struct {
	Token string   `json:"token"`
	Game  gameView `json:"game"`
}

// handleNewGame starts a session and sets the session cookie.
// A still-valid previous session is ended first.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	if raw := bearerOrCookie(r); raw != "" {
		if old, err := s.tokens.Parse(raw); err == nil {
			if err := s.sessions.End(r.Context(), old); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Str("session", old).Msg("end previous session")
			}
		}
	}

	id, st, err := s.sessions.Start(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tok, exp, err := s.tokens.Issue(id)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("issue session token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.tokens.setCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, newGameRes{Token: tok, Game: newGameView(st)})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(st))
}

type guessReq struct {
	Guess string `json:"guess"`
}

type guessRes struct {
	Result game.GuessResult `json:"result"`
	Game   gameView         `json:"game"`
}

// handleGuess applies one guess. Invalid words and finished games are
// reported in result with status 200.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	guess := strings.TrimSpace(req.Guess)
	if guess == "" || strings.IndexFunc(guess, func(c rune) bool { return !unicode.IsLetter(c) }) >= 0 {
		writeError(w, http.StatusBadRequest, "invalid_guess")
		return
	}

	res, st, err := s.sessions.Guess(r.Context(), sessionID(r), guess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guessRes{Result: res, Game: newGameView(st)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Reset(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(st))
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.tokens.clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ------------------------------ STATS --------------------------------------

type statsRes struct {
	history.Stats
	Recent []history.Entry `json:"recent"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	st, err := s.history.Stats(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("history stats")
		writeError(w, http.StatusInternalServerError, "store_failed")
		return
	}
	recent, err := s.history.Recent(r.Context(), 10)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("history recent")
		writeError(w, http.StatusInternalServerError, "store_failed")
		return
	}
	writeJSON(w, http.StatusOK, statsRes{Stats: st, Recent: recent})
}

func (s *Server) handleWordStats(w http.ResponseWriter, r *http.Request) {
	maxTries, wordLength := s.sessions.Dimensions()
	writeJSON(w, http.StatusOK, map[string]any{
		"byLength":   s.words.Stats(),
		"wordLength": wordLength,
		"maxTries":   maxTries,
	})
}

// ------------------------------- errors ------------------------------------

// fail maps a session error to a status code and a stable error code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrLengthMismatch):
		writeError(w, http.StatusBadRequest, "invalid_guess")
	case errors.Is(err, session.ErrStoreFailed):
		hlog.FromRequest(r).Error().Err(err).Msg("session store")
		writeError(w, http.StatusInternalServerError, "store_failed")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("word service")
		writeError(w, http.StatusInternalServerError, "word_service_unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
