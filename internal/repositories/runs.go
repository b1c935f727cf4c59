package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"radarsync/internal/models"
	"radarsync/internal/shared"
)

// RunRepository implements [models.Repository] for [models.Run] persistence.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, sequence, reference_id, reference_name, target_id, target_name,
			candidate_count, blacklisted_count, duplicate_count,
			written_count, chunk_count, wiped_count,
			status, failed_phase, started_at, finished_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id, sequence, run.ReferenceID(), run.ReferenceName(), run.TargetID(), run.TargetName(),
		run.Candidates(), run.Blacklisted(), run.Duplicates(),
		run.Written(), run.Chunks(), run.Wiped(),
		run.Status(), nullString(run.FailedPhase()),
		run.StartedAt(), run.FinishedAt(), run.CreatedAt(), run.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := selectRunQuery + " WHERE id = ? AND deleted_at IS NULL"

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return run, nil
}

// Update modifies an existing run in the database
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET candidate_count = ?, blacklisted_count = ?, duplicate_count = ?,
		    written_count = ?, chunk_count = ?, wiped_count = ?,
		    status = ?, failed_phase = ?, started_at = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Candidates(), run.Blacklisted(), run.Duplicates(),
		run.Written(), run.Chunks(), run.Wiped(),
		run.Status(), nullString(run.FailedPhase()),
		run.StartedAt(), run.FinishedAt(), now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all runs matching the given criteria, excluding soft-deleted
// runs, most recent first. Supported criteria: "target_id", "status", "limit".
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := selectRunQuery + " WHERE deleted_at IS NULL"
	args := []any{}

	if targetID, ok := criteria["target_id"].(string); ok && targetID != "" {
		query += " AND target_id = ?"
		args = append(args, targetID)
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

const selectRunQuery = `
	SELECT id, sequence, reference_id, reference_name, target_id, target_name,
	       candidate_count, blacklisted_count, duplicate_count,
	       written_count, chunk_count, wiped_count,
	       status, failed_phase, started_at, finished_at,
	       created_at, updated_at, deleted_at
	FROM runs
`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		id, referenceID, referenceName, targetID, targetName, status string
		sequence                                                     int
		candidates, blacklisted, duplicates, written, chunks, wiped  int
		failedPhase                                                  sql.NullString
		startedAt, finishedAt, createdAt, updatedAt                  time.Time
		deletedAt                                                    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &referenceID, &referenceName, &targetID, &targetName,
		&candidates, &blacklisted, &duplicates, &written, &chunks, &wiped,
		&status, &failedPhase, &startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	run := models.NewRun(sequence, referenceID, referenceName, targetID, targetName)
	run.SetID(id)
	run.SetCounts(candidates, blacklisted, duplicates, written, chunks, wiped)
	run.SetWindow(startedAt, finishedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if status == models.RunStatusFailed {
		run.Fail(failedPhase.String)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
