package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

// DefaultScope names the snapshot shared by runs without a narrower scope.
const DefaultScope = "all"

var unsafeScope = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Storage handles persistence of event snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// ScopeFor derives a snapshot scope from the country ids a run covered.
// No ids, or the full registry, maps to DefaultScope.
func ScopeFor(countries []int, all int) string {
	if len(countries) == 0 || len(countries) == all {
		return DefaultScope
	}
	parts := make([]string, len(countries))
	for i, id := range countries {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, "-")
}

// snapshotPath returns the path to the snapshot file
func (s *Storage) snapshotPath(scope string) string {
	scope = unsafeScope.ReplaceAllString(strings.TrimSpace(scope), "_")
	if scope == "" || strings.EqualFold(scope, DefaultScope) {
		return filepath.Join(s.dataDir, "snapshot.json")
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", scope))
}

// LoadSnapshot loads a snapshot from disk. A missing file yields an empty snapshot.
func (s *Storage) LoadSnapshot(scope string) (*event.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(scope))
	if err != nil {
		if os.IsNotExist(err) {
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Events == nil {
		snapshot.Events = make(map[string]*event.Event)
	}

	return &snapshot, nil
}

// SaveSnapshot writes a snapshot to disk, replacing the previous one for scope.
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot, scope string) error {
	path := s.snapshotPath(scope)

	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	// write-then-rename so an interrupted run never leaves a truncated file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}

// UpdateSnapshot merges a run's events into the scope's stored snapshot and saves it.
// Events missing from this run stay recorded so a narrower run cannot forget them.
func (s *Storage) UpdateSnapshot(events []*event.Event, dateFrom, dateTo, scope string) error {
	snapshot, err := s.LoadSnapshot(scope)
	if err != nil {
		return err
	}
	snapshot.Update(events, dateFrom, dateTo)
	return s.SaveSnapshot(snapshot, scope)
}

// GetEvent retrieves an event by key from a scope's snapshot.
func (s *Storage) GetEvent(key, scope string) (*event.Event, error) {
	snapshot, err := s.LoadSnapshot(scope)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if evt, exists := snapshot.Events[key]; exists {
		return evt, nil
	}

	return nil, fmt.Errorf("event not found: %s", key)
}
