package docbatch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCounterStoreRead(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		content string // "" means no file
		want    int
	}{
		{
			name: "no prior state initializes to zero",
			want: 0,
		},
		{
			name:    "same-day state is returned as-is",
			content: `{"date":"2026-08-29","lastNumber":42}`,
			want:    42,
		},
		{
			name:    "stale date resets to zero",
			content: `{"date":"2020-01-01","lastNumber":500}`,
			want:    0,
		},
		{
			name:    "corrupt file starts fresh",
			content: `{not json`,
			want:    0,
		},
		{
			name:    "empty file starts fresh",
			content: ` `,
			want:    0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "counter.json")
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			store := NewCounterStore(path)
			got, err := store.Read(now)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Read() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCounterStoreResetIsPersisted(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter.json")
	if err := os.WriteFile(path, []byte(`{"date":"2020-01-01","lastNumber":500}`), 0o600); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	store := NewCounterStore(path)
	if _, err := store.Read(now); err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var state counterState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("persisted state is not valid JSON: %v", err)
	}
	if state.Date != "2026-08-29" || state.LastNumber != 0 {
		t.Errorf("persisted reset = %+v, want today's date and zero", state)
	}
}

func TestCounterStoreWriteReadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "counter.json")
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	store := NewCounterStore(path)
	if err := store.Write(7, now); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := store.Read(now.Add(2 * time.Hour))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != 7 {
		t.Errorf("Read() = %d, want 7", got)
	}
}
