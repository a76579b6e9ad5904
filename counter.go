package docbatch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// counterDateLayout is the calendar-date format stored in the counter file.
const counterDateLayout = "2006-01-02"

// counterState is the persisted counter record, written wholesale on every
// update.
type counterState struct {
	Date       string `json:"date"`
	LastNumber int    `json:"lastNumber"`
}

// CounterStore persists a daily-scoped monotonic sequence number used to
// build document barcodes. The stored number is scoped to a single
// calendar day: a read on a later date resets it to zero.
//
// The store assumes a single batch in flight at a time; it performs no
// locking of its own.
type CounterStore struct {
	path string
}

// NewCounterStore creates a CounterStore backed by the file at path.
// The file is created on first write; a missing file reads as zero.
func NewCounterStore(path string) *CounterStore {
	return &CounterStore{path: path}
}

// Read returns the last number handed out today. If the stored date is not
// now's date, or the file is missing or unreadable, the counter resets to
// zero for today and the reset is persisted before returning. Storage
// problems are never fatal to the caller: a corrupt file starts fresh.
func (s *CounterStore) Read(now time.Time) (int, error) {
	today := now.Format(counterDateLayout)

	state, err := s.load()
	if err != nil || state.Date != today {
		// Missing, corrupt, or stale: start today's sequence at zero.
		if werr := s.Write(0, now); werr != nil {
			return 0, werr
		}
		return 0, nil
	}
	return state.LastNumber, nil
}

// Write persists today's date and n, fully overwriting prior state.
func (s *CounterStore) Write(n int, now time.Time) error {
	state := counterState{
		Date:       now.Format(counterDateLayout),
		LastNumber: n,
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding counter state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating counter directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing counter file: %w", err)
	}
	return nil
}

// load reads and decodes the stored state. Any failure is reported to the
// caller, which treats it as "no prior state".
func (s *CounterStore) load() (counterState, error) {
	var state counterState

	data, err := os.ReadFile(s.path) // #nosec G304 -- path comes from config
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("decoding counter state: %w", err)
	}
	return state, nil
}
