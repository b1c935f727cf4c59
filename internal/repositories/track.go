package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"radarsync/internal/models"
	"radarsync/internal/shared"
)

// TrackRepository implements [models.Repository] for [models.TrackRecord]
// persistence.
//
// Every track written by a run is archived for later reporting; the
// (run_id, spotify_id) pair is unique so re-archiving a run is idempotent.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new track record with generated ID and sequence
func (r *TrackRepository) Create(record *models.TrackRecord) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	record.SetID(id)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, run_id, spotify_id, title, artist, album, duration, isrc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id, sequence, record.RunID(), record.SpotifyID(), record.Title(),
		record.Artist(), record.Album(), record.Duration(), record.ISRC(),
		record.CreatedAt(), record.UpdatedAt())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil
		}
		return fmt.Errorf("failed to insert track record: %w", err)
	}

	return nil
}

// CreateBatch archives every record, stopping on the first failure.
func (r *TrackRepository) CreateBatch(records []*models.TrackRecord) error {
	for i, record := range records {
		if err := r.Create(record); err != nil {
			return fmt.Errorf("record %d/%d: %w", i+1, len(records), err)
		}
	}
	return nil
}

// Get retrieves a track record by ID, excluding soft-deleted records
func (r *TrackRepository) Get(id string) (*models.TrackRecord, error) {
	query := selectTrackQuery + " WHERE id = ? AND deleted_at IS NULL"

	record, err := scanTrackRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track record not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track record: %w", err)
	}

	return record, nil
}

// Update modifies an existing track record in the database
func (r *TrackRepository) Update(record *models.TrackRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration = ?, isrc = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		record.Title(), record.Artist(), record.Album(), record.Duration(),
		record.ISRC(), now, record.ID())
	if err != nil {
		return fmt.Errorf("failed to update track record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track record not found or already deleted: %s", record.ID())
	}

	return nil
}

// Delete soft-deletes a track record by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track record not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves track records matching the given criteria, excluding
// soft-deleted records. Supported criteria: "run_id", "isrc".
func (r *TrackRepository) List(criteria map[string]any) ([]*models.TrackRecord, error) {
	query := selectTrackQuery + " WHERE deleted_at IS NULL"
	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}
	if isrc, ok := criteria["isrc"].(string); ok && isrc != "" {
		query += " AND isrc = ?"
		args = append(args, isrc)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track records: %w", err)
	}
	defer rows.Close()

	var records []*models.TrackRecord
	for rows.Next() {
		record, err := scanTrackRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// ListByRun retrieves every track a run wrote, in write order.
func (r *TrackRepository) ListByRun(runID string) ([]*models.TrackRecord, error) {
	return r.List(map[string]any{"run_id": runID})
}

const selectTrackQuery = `
	SELECT id, sequence, run_id, spotify_id, title, artist, album, duration, isrc,
	       created_at, updated_at, deleted_at
	FROM tracks
`

func scanTrackRecord(row rowScanner) (*models.TrackRecord, error) {
	var (
		id, runID, spotifyID, title, artist, album, isrc string
		sequence, duration                               int
		createdAt, updatedAt                             time.Time
		deletedAt                                        sql.NullTime
	)

	err := row.Scan(&id, &sequence, &runID, &spotifyID, &title, &artist, &album,
		&duration, &isrc, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	record := models.NewTrackRecord(sequence, runID, spotifyID, title, artist, album, duration, isrc)
	record.SetID(id)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}

	return record, nil
}
