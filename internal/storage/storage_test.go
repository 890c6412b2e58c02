package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	tmpDir := t.TempDir()
	storage, err := New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return storage, tmpDir
}

func TestLoadSnapshotMissing(t *testing.T) {
	storage, _ := newTestStorage(t)

	snapshot, err := storage.LoadSnapshot(DefaultScope)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if snapshot.Events == nil || len(snapshot.Events) != 0 {
		t.Errorf("LoadSnapshot() = %+v, want empty snapshot", snapshot)
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	storage, tmpDir := newTestStorage(t)

	cpi := &event.Event{EventID: "520002", EventName: "CPI (YoY)", Country: "United States", Actual: "2.9%"}
	unkeyed := &event.Event{EventName: "Japan - Bank Holiday", Country: "Japan", Impact: event.ImpactHoliday}

	if err := storage.UpdateSnapshot([]*event.Event{cpi, unkeyed}, "2025-12-02", "2025-12-20", DefaultScope); err != nil {
		t.Fatalf("UpdateSnapshot() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "snapshot.json")); err != nil {
		t.Fatalf("snapshot.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "snapshot.json.tmp")); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}

	snapshot, err := storage.LoadSnapshot("ALL")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(snapshot.Events) != 2 {
		t.Fatalf("LoadSnapshot() has %d events, want 2", len(snapshot.Events))
	}
	if snapshot.DateFrom != "2025-12-02" || snapshot.DateTo != "2025-12-20" {
		t.Errorf("date range = %s..%s", snapshot.DateFrom, snapshot.DateTo)
	}
	if snapshot.UpdatedAt == "" {
		t.Error("UpdatedAt not set")
	}
	if got := snapshot.Events[cpi.Key()]; got == nil || got.Actual != "2.9%" {
		t.Errorf("Events[%q] = %+v", cpi.Key(), got)
	}
	if _, ok := snapshot.Events[unkeyed.Key()]; !ok {
		t.Error("unkeyed event should be stored under its generated key")
	}
}

func TestScopedSnapshots(t *testing.T) {
	storage, tmpDir := newTestStorage(t)

	us := &event.Event{EventID: "1", EventName: "Nonfarm Payrolls", Country: "United States"}
	if err := storage.UpdateSnapshot([]*event.Event{us}, "", "", "5"); err != nil {
		t.Fatalf("UpdateSnapshot() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "snapshot_5.json")); err != nil {
		t.Fatalf("scoped snapshot not written: %v", err)
	}

	all, err := storage.LoadSnapshot(DefaultScope)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(all.Events) != 0 {
		t.Errorf("default scope should be untouched, got %d events", len(all.Events))
	}
}

func TestUpdateSnapshotMerges(t *testing.T) {
	storage, _ := newTestStorage(t)

	claims := &event.Event{EventID: "520002", EventName: "Initial Jobless Claims", Country: "United States", Forecast: "223K"}
	holiday := &event.Event{EventID: "520001", EventName: "Japan - Bank Holiday", Country: "Japan", Impact: event.ImpactHoliday}
	if err := storage.UpdateSnapshot([]*event.Event{claims, holiday}, "2025-12-01", "2025-12-31", DefaultScope); err != nil {
		t.Fatalf("UpdateSnapshot() error = %v", err)
	}

	revised := &event.Event{EventID: "520002", EventName: "Initial Jobless Claims", Country: "United States", Actual: "214K"}
	if err := storage.UpdateSnapshot([]*event.Event{revised}, "2025-12-02", "2025-12-02", DefaultScope); err != nil {
		t.Fatalf("UpdateSnapshot() error = %v", err)
	}

	snapshot, err := storage.LoadSnapshot(DefaultScope)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(snapshot.Events) != 2 {
		t.Fatalf("snapshot has %d events, want 2", len(snapshot.Events))
	}
	if _, ok := snapshot.Events["520001"]; !ok {
		t.Error("event outside the narrower run was dropped")
	}
	if got := snapshot.Events["520002"]; got.Actual != "214K" {
		t.Errorf("Events[520002] = %+v, want latest values", got)
	}
	if snapshot.DateFrom != "2025-12-01" || snapshot.DateTo != "2025-12-31" {
		t.Errorf("date range = %s..%s, want 2025-12-01..2025-12-31", snapshot.DateFrom, snapshot.DateTo)
	}
}

func TestGetEvent(t *testing.T) {
	storage, _ := newTestStorage(t)
	gdp := &event.Event{EventID: "777", EventName: "GDP (QoQ)", Country: "Euro Zone"}
	if err := storage.UpdateSnapshot([]*event.Event{gdp}, "", "", DefaultScope); err != nil {
		t.Fatalf("UpdateSnapshot() error = %v", err)
	}

	tests := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "found", key: "777"},
		{name: "missing", key: "888", wantErr: "event not found: 888"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.GetEvent(tt.key, DefaultScope)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Errorf("GetEvent() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetEvent() error = %v", err)
			}
			if got.EventName != gdp.EventName {
				t.Errorf("GetEvent() = %+v", got)
			}
		})
	}
}

func TestLoadSnapshotCorrupt(t *testing.T) {
	storage, tmpDir := newTestStorage(t)
	if err := os.WriteFile(filepath.Join(tmpDir, "snapshot.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.LoadSnapshot(DefaultScope); err == nil {
		t.Error("LoadSnapshot() should fail on corrupt data")
	}
}

func TestScopeFor(t *testing.T) {
	tests := []struct {
		countries []int
		all       int
		want      string
	}{
		{countries: nil, all: 47, want: DefaultScope},
		{countries: []int{5, 72}, all: 2, want: DefaultScope},
		{countries: []int{5, 72}, all: 47, want: "5-72"},
	}
	for _, tt := range tests {
		if got := ScopeFor(tt.countries, tt.all); got != tt.want {
			t.Errorf("ScopeFor(%v, %d) = %q, want %q", tt.countries, tt.all, got, tt.want)
		}
	}
}

func TestNewExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	storage, err := New("~/econ-data")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if storage.Dir() != filepath.Join(home, "econ-data") {
		t.Errorf("Dir() = %q", storage.Dir())
	}
}
