package store

import (
	"path/filepath"
	"testing"

	"github.com/corvid-labs/tripline/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndRecent(t *testing.T) {
	db := newTestDB(t)

	clean := model.DefenseResult{
		OriginalAction: model.ToolCall{Name: "read_file"},
		FinalAction:    model.ToolCall{Name: "read_file"},
	}
	defended := model.DefenseResult{
		OriginalAction: model.ToolCall{Name: "send_email"},
		FinalAction:    model.ToolCall{Name: "send_email"},
		WasDefended:    true,
		Detection: model.DetectionResult{
			Detected:           true,
			FlaggedSpanIndices: map[int]bool{0: true},
			DominantDelta:      0.9,
			UserDelta:          0.1,
		},
	}

	if err := db.Insert("t-1", clean); err != nil {
		t.Fatal(err)
	}
	if err := db.Insert("t-2", defended); err != nil {
		t.Fatal(err)
	}

	recs, err := db.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	// newest first
	if recs[0].TraceID != "t-2" {
		t.Errorf("expected newest record first (t-2), got %s", recs[0].TraceID)
	}
	if !recs[0].Detected || !recs[0].WasDefended {
		t.Error("expected t-2 to be detected and defended")
	}
	if recs[1].Detected || recs[1].WasDefended {
		t.Error("expected t-1 to be a clean passthrough")
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 5; i++ {
		if err := db.Insert("t-bulk", model.DefenseResult{OriginalAction: model.ToolCall{Name: "noop"}}); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := db.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
}

func TestByTraceIDFiltersAndOrders(t *testing.T) {
	db := newTestDB(t)

	if err := db.Insert("t-a", model.DefenseResult{OriginalAction: model.ToolCall{Name: "one"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.Insert("t-b", model.DefenseResult{OriginalAction: model.ToolCall{Name: "two"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.Insert("t-a", model.DefenseResult{OriginalAction: model.ToolCall{Name: "three"}}); err != nil {
		t.Fatal(err)
	}

	recs, err := db.ByTraceID("t-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records for t-a, got %d", len(recs))
	}
	if recs[0].ActionName != "one" || recs[1].ActionName != "three" {
		t.Errorf("expected oldest-first order [one three], got [%s %s]", recs[0].ActionName, recs[1].ActionName)
	}
}
