package series

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/domino14/matchharness/harness"
)

var csvHeader = []string{"trial", "outcome", "reason", "attempts", "duration_ms"}

// CSVSink writes one row per trial.
type CSVSink struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

func outcomeCode(o harness.Outcome) string {
	switch o.Kind {
	case harness.Win:
		return "W"
	case harness.Loss:
		return "L"
	}
	return "E"
}

func (c *CSVSink) Record(ctx context.Context, r Result) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	err := c.w.Write([]string{
		strconv.Itoa(r.Trial),
		outcomeCode(r.Outcome),
		r.Outcome.Reason,
		strconv.FormatUint(uint64(r.Attempts), 10),
		strconv.FormatInt(r.Duration.Milliseconds(), 10),
	})
	if err != nil {
		return err
	}
	// Flush per row so a killed series still leaves a readable log.
	c.w.Flush()
	return c.w.Error()
}

// SeriesInfo describes a series stored in a SQLStore.
type SeriesInfo struct {
	ID        string
	Profile   string
	Candidate string
	Baseline  string
	Overrides []harness.Override
	Games     int
	CreatedAt time.Time
}

// SQLStore keeps series results in a SQLite database.
type SQLStore struct {
	db       *sql.DB
	seriesID string
}

func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer goroutine feeds the store.
	db.SetMaxOpenConns(1)
	s := &SQLStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS series (
			id TEXT PRIMARY KEY,
			profile TEXT NOT NULL,
			candidate TEXT NOT NULL,
			baseline TEXT NOT NULL,
			overrides TEXT NOT NULL,
			games INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			series_id TEXT NOT NULL,
			trial INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			FOREIGN KEY (series_id) REFERENCES series(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_series ON results(series_id)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func encodeOverrides(overrides []harness.Override) (string, error) {
	if len(overrides) == 0 {
		return "", nil
	}
	bts, err := yaml.Marshal(overrides)
	return string(bts), err
}

func decodeOverrides(s string) ([]harness.Override, error) {
	var overrides []harness.Override
	if s == "" {
		return nil, nil
	}
	err := yaml.Unmarshal([]byte(s), &overrides)
	return overrides, err
}

// StartSeries registers a new series; subsequent Record calls attach to it.
func (s *SQLStore) StartSeries(ctx context.Context, info SeriesInfo) (string, error) {
	overrides, err := encodeOverrides(info.Overrides)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO series (id, profile, candidate, baseline, overrides, games)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, info.Profile, info.Candidate, info.Baseline, overrides, info.Games)
	if err != nil {
		return "", fmt.Errorf("failed to insert series: %w", err)
	}
	s.seriesID = id
	return id, nil
}

func (s *SQLStore) Record(ctx context.Context, r Result) error {
	if s.seriesID == "" {
		return fmt.Errorf("no series started")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (series_id, trial, outcome, reason, attempts, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.seriesID, r.Trial, outcomeCode(r.Outcome), r.Outcome.Reason,
		r.Attempts, r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// GetSeries returns a stored series' description.
func (s *SQLStore) GetSeries(ctx context.Context, id string) (*SeriesInfo, error) {
	info := &SeriesInfo{}
	var overrides, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile, candidate, baseline, overrides, games, created_at
		 FROM series WHERE id = ?`, id).
		Scan(&info.ID, &info.Profile, &info.Candidate, &info.Baseline, &overrides,
			&info.Games, &createdAt)
	if err != nil {
		return nil, err
	}
	info.Overrides, err = decodeOverrides(overrides)
	if err != nil {
		return nil, err
	}
	info.CreatedAt = parseTimestamp(createdAt)
	return info, nil
}

// parseTimestamp accepts both what CURRENT_TIMESTAMP stores and what the
// driver may hand back for DATETIME columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Results returns a series' results ordered by trial id.
func (s *SQLStore) Results(ctx context.Context, seriesID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trial, outcome, reason, attempts, duration_ms
		 FROM results WHERE series_id = ? ORDER BY trial`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []Result
	for rows.Next() {
		var code, reason string
		var attempts, ms int64
		var r Result
		if err := rows.Scan(&r.Trial, &code, &reason, &attempts, &ms); err != nil {
			return nil, err
		}
		r.Attempts = uint(attempts)
		r.Duration = time.Duration(ms) * time.Millisecond
		switch code {
		case "W":
			r.Outcome = harness.WinOutcome()
		case "L":
			r.Outcome = harness.LossOutcome()
		default:
			r.Outcome = harness.ErrorOutcome(reason)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
