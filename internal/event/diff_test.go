package event

import "testing"

func TestDiff(t *testing.T) {
	evt1 := &Event{EventID: "100", Country: "United States", EventName: "CPI", ParsedDateTime: "2025-12-10T13:30:00"}
	evt2 := &Event{EventID: "200", Country: "United States", EventName: "Retail Sales", ParsedDateTime: "2025-12-16T13:30:00"}
	evt3 := &Event{EventID: "300", Country: "Japan", EventName: "BoJ Rate Decision", ParsedDateTime: "2025-12-12T03:00:00"}

	previous := NewSnapshot()
	previous.Update([]*Event{evt1}, "2025-12-01", "2025-12-31")
	current := []*Event{evt1, evt2, evt3}

	t.Run("finds new events", func(t *testing.T) {
		result := Diff(previous, current)

		if len(result.NewEvents) != 2 {
			t.Fatalf("expected 2 new events, got %d", len(result.NewEvents))
		}
		// sorted by date
		if result.NewEvents[0].EventID != "300" || result.NewEvents[1].EventID != "200" {
			t.Errorf("unexpected order: %s, %s", result.NewEvents[0].EventID, result.NewEvents[1].EventID)
		}
	})

	t.Run("handles nil previous snapshot", func(t *testing.T) {
		result := Diff(nil, current)

		if len(result.NewEvents) != 3 {
			t.Errorf("expected 3 new events, got %d", len(result.NewEvents))
		}
	})

	t.Run("detects released actual", func(t *testing.T) {
		released := *evt1
		released.Actual = "2.9%"
		result := Diff(previous, []*Event{&released})

		if len(result.NewEvents) != 0 {
			t.Errorf("expected no new events, got %d", len(result.NewEvents))
		}
		if len(result.Changes) != 1 {
			t.Fatalf("expected 1 change, got %d", len(result.Changes))
		}
		change := result.Changes[0]
		if change.ChangeType != "actual" || change.OldValue != "" || change.NewValue != "2.9%" {
			t.Errorf("unexpected change: %+v", change)
		}
	})
}

func TestSnapshotUpdate(t *testing.T) {
	unkeyed := &Event{Country: "Japan", EventName: "Bank Holiday", RawDateTime: "2025/12/31 00:00:00"}
	keyed := &Event{EventID: "42", EventName: "GDP"}

	snap := NewSnapshot()
	snap.Update([]*Event{unkeyed, keyed}, "2025-12-10", "2025-12-20")

	if len(snap.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(snap.Events))
	}
	if _, ok := snap.Events["42"]; !ok {
		t.Error("keyed event should be stored under its EventID")
	}
	if _, ok := snap.Events[unkeyed.Key()]; !ok {
		t.Error("unkeyed event should be stored under its fingerprint")
	}

	revised := &Event{EventID: "42", EventName: "GDP", Actual: "0.4%"}
	snap.Update([]*Event{revised}, "2025-12-15", "2025-12-16")

	if len(snap.Events) != 2 {
		t.Errorf("a narrower update must keep earlier events, got %d", len(snap.Events))
	}
	if snap.Events["42"].Actual != "0.4%" {
		t.Errorf("keyed event not replaced: %+v", snap.Events["42"])
	}
	if snap.DateFrom != "2025-12-10" || snap.DateTo != "2025-12-20" {
		t.Errorf("narrower update changed range to %s..%s", snap.DateFrom, snap.DateTo)
	}

	snap.Update(nil, "2025-12-01", "2026-01-05")
	if snap.DateFrom != "2025-12-01" || snap.DateTo != "2026-01-05" {
		t.Errorf("wider update should widen range, got %s..%s", snap.DateFrom, snap.DateTo)
	}
}

func TestDetectChanges(t *testing.T) {
	prev := &Event{EventID: "1", Time: "13:30", Forecast: "0.3%", Previous: "0.2%"}
	curr := &Event{EventID: "1", Time: "14:00", Forecast: "0.4%", Previous: "0.2%"}

	changes := DetectChanges(prev, curr)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	kinds := map[string]bool{}
	for _, c := range changes {
		kinds[c.ChangeType] = true
	}
	if !kinds["forecast"] || !kinds["time"] {
		t.Errorf("expected forecast and time changes, got %v", kinds)
	}

	if DetectChanges(nil, curr) != nil {
		t.Error("nil previous should produce no changes")
	}
}
