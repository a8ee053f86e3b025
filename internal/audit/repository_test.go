package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the
// control_audit schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	schema := `
		CREATE TABLE control_audit (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			target_id TEXT,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	return db
}

func TestRecordGeneratesIDAndTimestamp(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	entry := &Entry{
		Action:   ActionSetParameter,
		Target:   TargetParameter,
		TargetID: "heating_target_temp",
		Source:   "api",
		Details:  map[string]any{"value": 65.0},
	}
	if err := repo.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if entry.ID == "" {
		t.Error("expected generated ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("expected generated timestamp")
	}
}

func TestListReturnsMostRecentFirst(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 16, 9, 0, 0, 0, time.UTC)
	for i, action := range []string{ActionSetParameter, ActionSetSchedule, ActionRefresh} {
		entry := &Entry{
			Action:    action,
			Target:    TargetController,
			Source:    "api",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Record(ctx, entry); err != nil {
			t.Fatalf("Record %s: %v", action, err)
		}
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(result.Entries))
	}
	if result.Entries[0].Action != ActionRefresh {
		t.Errorf("newest entry = %s, want %s", result.Entries[0].Action, ActionRefresh)
	}
}

func TestListFilters(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	seed := []Entry{
		{Action: ActionSetParameter, Target: TargetParameter, TargetID: "heating_target_temp", Source: "api"},
		{Action: ActionSetParameter, Target: TargetParameter, TargetID: "mixer_target_temp", Source: "api"},
		{Action: ActionSetSchedule, Target: TargetSchedule, TargetID: "heating", Source: "api"},
	}
	for i := range seed {
		if err := repo.Record(ctx, &seed[i]); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	cases := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by action", Filter{Action: ActionSetParameter}, 2},
		{"by target", Filter{Target: TargetSchedule}, 1},
		{"by target id", Filter{TargetID: "mixer_target_temp"}, 1},
		{"combined", Filter{Action: ActionSetParameter, TargetID: "heating"}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := repo.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if result.Total != tc.want {
				t.Errorf("Total = %d, want %d", result.Total, tc.want)
			}
		})
	}
}

func TestListClampsLimit(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	result, err := repo.List(ctx, Filter{Limit: 5000, Offset: -3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Limit != 200 {
		t.Errorf("Limit = %d, want clamp to 200", result.Limit)
	}
	if result.Offset != 0 {
		t.Errorf("Offset = %d, want clamp to 0", result.Offset)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected empty slice, got %d entries", len(result.Entries))
	}
}

func TestDetailsRoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	entry := &Entry{
		Action:  ActionSetSchedule,
		Target:  TargetSchedule,
		Source:  "api",
		Details: map[string]any{"weekday": "monday", "preset": "day"},
	}
	if err := repo.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := result.Entries[0].Details
	if got["weekday"] != "monday" || got["preset"] != "day" {
		t.Errorf("details = %v, want weekday/preset preserved", got)
	}
}
