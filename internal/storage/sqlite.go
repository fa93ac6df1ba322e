package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// DB is the subset of *sql.DB the store needs.
type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Submission is one handled form submission.
type Submission struct {
	Time    time.Time
	Symbols []string
	Field   string
	// Layout is candlestick, overlay or error.
	Layout string
	Error  string
}

// UsageStats aggregates submissions of one layout.
type UsageStats struct {
	Count   int
	Symbols map[string]int
}

// Recorder keeps the submission log used by the usage page.
type Recorder interface {
	RecordSubmission(s Submission) error
	UsageStats(since time.Time) (map[string]*UsageStats, error)
	Close() error
}

// Store is the SQLite Recorder.
type Store struct {
	mu sync.Mutex
	db DB
}

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS submissions(
		ts INTEGER NOT NULL, symbols TEXT NOT NULL, field TEXT, layout TEXT NOT NULL, error TEXT
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_submissions_ts ON submissions(ts)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

func (s *Store) RecordSubmission(sub Submission) error {
	if sub.Time.IsZero() {
		sub.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO submissions(ts,symbols,field,layout,error) VALUES(?,?,?,?,?)`,
		sub.Time.Unix(), strings.Join(sub.Symbols, ","), sub.Field, sub.Layout, sub.Error)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// UsageStats groups submissions since the given time by layout and counts
// how often each symbol was requested.
func (s *Store) UsageStats(since time.Time) (map[string]*UsageStats, error) {
	rows, err := s.db.Query(`SELECT layout, symbols FROM submissions WHERE ts>=? ORDER BY ts ASC`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	out := map[string]*UsageStats{}
	for rows.Next() {
		var layout, symbols string
		if err := rows.Scan(&layout, &symbols); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		st, ok := out[layout]
		if !ok {
			st = &UsageStats{Symbols: map[string]int{}}
			out[layout] = st
		}
		st.Count++
		for _, sym := range strings.Split(symbols, ",") {
			if sym != "" {
				st.Symbols[sym]++
			}
		}
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

// NoopRecorder is used when no SQLite path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordSubmission(Submission) error { return nil }
func (NoopRecorder) UsageStats(time.Time) (map[string]*UsageStats, error) {
	return map[string]*UsageStats{}, nil
}
func (NoopRecorder) Close() error { return nil }

var (
	_ Recorder = (*Store)(nil)
	_ Recorder = NoopRecorder{}
)
