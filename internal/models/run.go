package models

import (
	"fmt"
	"time"
)

// Run status values.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one archived reconciliation run: which playlists were involved, how
// many tracks flowed through each phase, and how it ended.
type Run struct {
	id       string
	sequence int

	referenceID   string
	referenceName string
	targetID      string
	targetName    string

	candidates  int
	blacklisted int
	duplicates  int
	written     int
	chunks      int
	wiped       int

	status      string
	failedPhase string

	startedAt  time.Time
	finishedAt time.Time
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewRun creates a Run for the given playlist pair. Status defaults to
// completed; call [Run.Fail] for aborted runs.
func NewRun(sequence int, referenceID, referenceName, targetID, targetName string) *Run {
	now := time.Now()
	return &Run{
		sequence:      sequence,
		referenceID:   referenceID,
		referenceName: referenceName,
		targetID:      targetID,
		targetName:    targetName,
		status:        RunStatusCompleted,
		startedAt:     now,
		finishedAt:    now,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (r *Run) ID() string           { return r.id }
func (r *Run) Sequence() int        { return r.sequence }
func (r *Run) ReferenceID() string  { return r.referenceID }
func (r *Run) ReferenceName() string { return r.referenceName }
func (r *Run) TargetID() string     { return r.targetID }
func (r *Run) TargetName() string   { return r.targetName }
func (r *Run) Candidates() int      { return r.candidates }
func (r *Run) Blacklisted() int     { return r.blacklisted }
func (r *Run) Duplicates() int      { return r.duplicates }
func (r *Run) Written() int         { return r.written }
func (r *Run) Chunks() int          { return r.chunks }
func (r *Run) Wiped() int           { return r.wiped }
func (r *Run) Status() string       { return r.status }
func (r *Run) FailedPhase() string  { return r.failedPhase }
func (r *Run) StartedAt() time.Time { return r.startedAt }
func (r *Run) FinishedAt() time.Time { return r.finishedAt }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

func (r *Run) SetID(id string)              { r.id = id }
func (r *Run) SetUpdatedAt(t time.Time)     { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time)    { r.deletedAt = t }
func (r *Run) SetCreatedAt(t time.Time)     { r.createdAt = t }

// SetCounts records the per-phase track counts of a completed run.
func (r *Run) SetCounts(candidates, blacklisted, duplicates, written, chunks, wiped int) {
	r.candidates = candidates
	r.blacklisted = blacklisted
	r.duplicates = duplicates
	r.written = written
	r.chunks = chunks
	r.wiped = wiped
}

// SetWindow records when the run started and finished.
func (r *Run) SetWindow(started, finished time.Time) {
	r.startedAt = started
	r.finishedAt = finished
}

// Fail marks the run failed in the named phase.
func (r *Run) Fail(phase string) {
	r.status = RunStatusFailed
	r.failedPhase = phase
}

// Validate checks required fields and status consistency.
func (r *Run) Validate() error {
	if r.referenceID == "" {
		return fmt.Errorf("run requires a reference playlist ID")
	}
	if r.targetID == "" {
		return fmt.Errorf("run requires a target playlist ID")
	}
	if r.status != RunStatusCompleted && r.status != RunStatusFailed {
		return fmt.Errorf("invalid run status: %s", r.status)
	}
	if r.status == RunStatusFailed && r.failedPhase == "" {
		return fmt.Errorf("failed run requires a failed phase")
	}
	if r.finishedAt.Before(r.startedAt) {
		return fmt.Errorf("run finished before it started")
	}
	return nil
}
