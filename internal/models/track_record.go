package models

import (
	"fmt"
	"time"
)

// TrackRecord is one track written to the target playlist by an archived run.
// Duration is whole seconds; the ISRC may be empty for uncoded tracks.
type TrackRecord struct {
	id       string
	sequence int

	runID     string
	spotifyID string
	title     string
	artist    string
	album     string
	duration  int
	isrc      string

	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewTrackRecord creates a TrackRecord tied to a persisted run.
func NewTrackRecord(sequence int, runID, spotifyID, title, artist, album string, duration int, isrc string) *TrackRecord {
	now := time.Now()
	return &TrackRecord{
		sequence:  sequence,
		runID:     runID,
		spotifyID: spotifyID,
		title:     title,
		artist:    artist,
		album:     album,
		duration:  duration,
		isrc:      isrc,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *TrackRecord) ID() string            { return t.id }
func (t *TrackRecord) Sequence() int         { return t.sequence }
func (t *TrackRecord) RunID() string         { return t.runID }
func (t *TrackRecord) SpotifyID() string     { return t.spotifyID }
func (t *TrackRecord) Title() string         { return t.title }
func (t *TrackRecord) Artist() string        { return t.artist }
func (t *TrackRecord) Album() string         { return t.album }
func (t *TrackRecord) Duration() int         { return t.duration }
func (t *TrackRecord) ISRC() string          { return t.isrc }
func (t *TrackRecord) CreatedAt() time.Time  { return t.createdAt }
func (t *TrackRecord) UpdatedAt() time.Time  { return t.updatedAt }
func (t *TrackRecord) DeletedAt() *time.Time { return t.deletedAt }

func (t *TrackRecord) SetID(id string)           { t.id = id }
func (t *TrackRecord) SetUpdatedAt(ts time.Time) { t.updatedAt = ts }
func (t *TrackRecord) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }
func (t *TrackRecord) SetCreatedAt(ts time.Time) { t.createdAt = ts }

// Validate checks required fields.
func (t *TrackRecord) Validate() error {
	if t.runID == "" {
		return fmt.Errorf("track record requires a run ID")
	}
	if t.spotifyID == "" {
		return fmt.Errorf("track record requires a track ID")
	}
	if t.title == "" {
		return fmt.Errorf("track record requires a title")
	}
	if t.duration < 0 {
		return fmt.Errorf("track record duration cannot be negative")
	}
	return nil
}
