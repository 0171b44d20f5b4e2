// internal/history/history.go
//
// SQLite archive of finished games.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in _migrations).
//   - Recording one outcome per finished game and summarizing them for /stats.

package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/session"
)

//go:embed sql/*.sql
var migrations embed.FS

// finishedLayout is fixed width so finished_at sorts chronologically as text.
const finishedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store archives outcomes in SQLite. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

var _ session.Archive = (*Store)(nil)

// Stats summarizes the archive.
type Stats struct {
	Played        int         `json:"played"`
	Won           int         `json:"won"`
	Lost          int         `json:"lost"`
	CurrentStreak int         `json:"currentStreak"`
	MaxStreak     int         `json:"maxStreak"`
	Distribution  map[int]int `json:"distribution"` // tries -> wins
}

// Entry is one archived game.
type Entry struct {
	SessionID  string      `json:"sessionId"`
	Word       string      `json:"word"`
	Status     game.Status `json:"status"`
	Tries      int         `json:"tries"`
	MaxTries   int         `json:"maxTries"`
	WordLength int         `json:"wordLength"`
	FinishedAt time.Time   `json:"finishedAt"`
}

// Open opens (and creates if missing) the database at dsn and migrates it.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func openDB(dsn string) (*sql.DB, error) {
	if !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// one writer; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dsn, err)
	}
	return db, nil
}

// migrate applies embedded migrations in lexical order, each in its own transaction.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			s.logger.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		s.logger.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Record inserts a finished game. Outcomes of unfinished games are rejected.
func (s *Store) Record(ctx context.Context, o session.Outcome) error {
	if o.Status != game.StatusWon && o.Status != game.StatusLost {
		return fmt.Errorf("record outcome: game is %s", o.Status)
	}
	finished := o.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO outcomes
            (session_id, word, status, tries, max_tries, word_length, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.SessionID, o.Word, string(o.Status), o.Tries, o.MaxTries, o.WordLength,
		finished.UTC().Format(finishedLayout),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Stats computes totals, streaks and the winning-tries distribution.
// Streaks follow finish order: a loss resets the current streak.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, tries FROM outcomes ORDER BY finished_at ASC, id ASC`)
	if err != nil {
		return Stats{}, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	st := Stats{Distribution: make(map[int]int)}
	for rows.Next() {
		var (
			status string
			tries  int
		)
		if err := rows.Scan(&status, &tries); err != nil {
			return Stats{}, fmt.Errorf("scan outcome: %w", err)
		}
		st.Played++
		if game.Status(status) == game.StatusWon {
			st.Won++
			st.Distribution[tries]++
			st.CurrentStreak++
			if st.CurrentStreak > st.MaxStreak {
				st.MaxStreak = st.CurrentStreak
			}
			continue
		}
		st.Lost++
		st.CurrentStreak = 0
	}
	return st, rows.Err()
}

// Recent returns up to limit entries, newest first. Default limit is 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, word, status, tries, max_tries, word_length, finished_at
        FROM outcomes
        ORDER BY finished_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e        Entry
			status   string
			finished string
		)
		if err := rows.Scan(&e.SessionID, &e.Word, &status, &e.Tries, &e.MaxTries, &e.WordLength, &finished); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		e.Status = game.Status(status)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, e)
	}
	return out, rows.Err()
}
