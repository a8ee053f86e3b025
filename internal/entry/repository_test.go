package entry

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the
// config_entries schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	schema := `
		CREATE TABLE config_entries (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			version INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	return db
}

func testRecord(id string) *Record {
	return &Record{
		ID:    id,
		Title: "Boiler " + id,
		Connection: ConnectionConfig{
			Kind: ConnectionTCP,
			Host: "boiler.local",
			Port: 8899,
		},
		Model:        "ecoMAX 860P3-O",
		ProductID:    4,
		UID:          "UID-" + id,
		Software:     "6.10.32",
		Capabilities: []string{"sensors", "water_heater"},
		Version:      CurrentVersion,
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rec := testRecord("a")
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != rec.Title || got.UID != rec.UID || got.Version != rec.Version {
		t.Errorf("loaded record %+v differs from stored %+v", got, rec)
	}
	if len(got.Capabilities) != 2 {
		t.Errorf("capabilities = %v", got.Capabilities)
	}
}

func TestRepositoryCreateDuplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testRecord("a")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, testRecord("a")); !errors.Is(err, ErrRecordExists) {
		t.Fatalf("duplicate Create error = %v, want ErrRecordExists", err)
	}
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestRepositoryUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rec := testRecord("a")
	rec.Version = 6
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec.Version = CurrentVersion
	rec.ProductID = 51
	if err := repo.Update(ctx, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Version != CurrentVersion || got.ProductID != 51 {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestRepositoryUpdateMissing(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Update(context.Background(), testRecord("ghost"))
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestRepositoryListAndDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		if err := repo.Create(ctx, testRecord(id)); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	recs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "a" || recs[1].ID != "b" {
		t.Fatalf("List returned %d records in wrong order", len(recs))
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "a"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("second Delete error = %v, want ErrRecordNotFound", err)
	}

	recs, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "b" {
		t.Fatalf("unexpected records after delete: %d", len(recs))
	}
}

// Historical documents may carry fields the current schema dropped;
// loading must not fail on them.
func TestRepositoryLoadsLegacyDocument(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	legacy := `{"id":"old","title":"Old boiler","model":"EM350P2-ZF",` +
		`"capabilities":["legacy_flag"],"obsolete_field":true,"version":4}`
	_, err := db.Exec(
		`INSERT INTO config_entries (id, title, version, data, created_at, updated_at)
		 VALUES ('old', 'Old boiler', 4, ?, '2024-01-01', '2024-01-01')`, legacy)
	if err != nil {
		t.Fatalf("seeding legacy row: %v", err)
	}

	got, err := repo.GetByID(context.Background(), "old")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Version != 4 || got.Model != "EM350P2-ZF" {
		t.Errorf("legacy record loaded wrong: %+v", got)
	}
}
