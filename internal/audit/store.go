// Package audit persists evaluated decisions as JSON Lines, both for
// operator inspection and as the engine's default instrumentation sink.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gitpulse/gitpulse/internal/engine"
	"github.com/gitpulse/gitpulse/internal/event"
	"github.com/gitpulse/gitpulse/internal/log"
)

// maxRecords is the maximum number of decisions retained in the store.
const maxRecords = 1000

// Record captures one evaluated decision.
type Record struct {
	Timestamp    time.Time     `json:"ts"`
	UserID       string        `json:"userId"`
	EventKind    event.Kind    `json:"eventKind"`
	Trigger      event.Trigger `json:"trigger"`
	Repository   string        `json:"repository"`
	ShouldNotify bool          `json:"shouldNotify"`
	Reason       string        `json:"reason"`
	Primary      string        `json:"primaryProfile,omitempty"`
	MatchCount   int           `json:"matchCount"`
}

// Store manages persistence of decision records as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ engine.Instrumenter = (*Store)(nil)

// NewStore creates a decision log at ~/.cache/gitpulse/decisions.jsonl.
func NewStore() (*Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(cacheDir, "gitpulse")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		path: filepath.Join(dir, "decisions.jsonl"),
	}, nil
}

// NewStoreWithPath creates a store at the given path (for testing).
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// DecisionEvaluated records a decision. Implements engine.Instrumenter;
// write failures are logged and otherwise dropped.
func (s *Store) DecisionEvaluated(userID string, ev *event.Event, d *engine.Decision) {
	rec := Record{
		Timestamp:    time.Now(),
		UserID:       userID,
		EventKind:    ev.Kind,
		Trigger:      ev.Trigger,
		Repository:   ev.Repo.FullName,
		ShouldNotify: d.ShouldNotify,
		Reason:       d.Reason,
		MatchCount:   len(d.Matches),
	}
	if d.Primary != nil {
		rec.Primary = d.Primary.Profile.ID
	}
	if err := s.Append(rec); err != nil {
		log.Warn("failed to record decision", "error", err)
	}
}

// Append adds a record and prunes to the last maxRecords entries.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		log.Debug("could not read decision log, starting fresh", "error", err)
		records = nil
	}

	records = append(records, rec)
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return s.writeAll(records)
}

// Recent returns the last n records (or fewer if not enough exist).
// A non-positive n returns nil.
func (s *Store) Recent(n int) []Record {
	if n <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil
	}

	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

// readAll reads all records from disk.
func (s *Store) readAll() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // skip malformed lines
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// writeAll writes all records to disk atomically.
func (s *Store) writeAll(records []Record) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.path)
}
