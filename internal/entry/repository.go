package entry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for config record persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite. Records are
// stored as JSON documents so historical field shapes survive loading;
// id and version are mirrored into columns for lookups.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a config record by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := `SELECT data FROM config_entries WHERE id = ?`

	var data []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying config record: %w", err)
	}

	return unmarshalRecord(id, data)
}

// List retrieves all config records ordered by title.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Record, error) {
	query := `SELECT id, data FROM config_entries ORDER BY title, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing config records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var out []*Record
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning config record: %w", err)
		}
		rec, err := unmarshalRecord(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating config records: %w", err)
	}
	return out, nil
}

// Create inserts a new config record.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding config record: %w", err)
	}

	query := `INSERT INTO config_entries (id, title, version, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, query, rec.ID, rec.Title, rec.Version, string(data), now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrRecordExists
		}
		return fmt.Errorf("inserting config record: %w", err)
	}
	return nil
}

// Update replaces the stored document for an existing record.
func (r *SQLiteRepository) Update(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding config record: %w", err)
	}

	query := `UPDATE config_entries SET title = ?, version = ?, data = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, rec.Title, rec.Version, string(data), time.Now().UTC(), rec.ID)
	if err != nil {
		return fmt.Errorf("updating config record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes a config record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM config_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting config record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func unmarshalRecord(id string, data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding config record %s: %w", id, err)
	}
	rec.ID = id
	return &rec, nil
}
