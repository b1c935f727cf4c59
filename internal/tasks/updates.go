package tasks

import (
	"fmt"

	"radarsync/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase identifies where in a reconciliation run an event or failure occurred.
type Phase int

const (
	ResolvePlaylists Phase = iota
	ExpandAlbums
	FilterBlacklist
	Dedup
	WriteChunks
	WipeSource
	Done
	Compare
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case ResolvePlaylists:
		return "resolve_playlists"
	case ExpandAlbums:
		return "expand_albums"
	case FilterBlacklist:
		return "filter_blacklist"
	case Dedup:
		return "dedup"
	case WriteChunks:
		return "write_chunks"
	case WipeSource:
		return "wipe_source"
	case Done:
		return "done"
	case Compare:
		return "compare"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

// PhaseError wraps a run failure with the phase it occurred in, so a failed
// run reports where it stopped and what state the target was left in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseErr(phase Phase, err error) error {
	return &PhaseError{Phase: phase, Err: err}
}

func resolvingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s playlist...", name),
	}
}

func resolvedUpdate(step, total int, pl *services.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, pl.TrackCount),
		Data:    pl,
	}
}

func expandAlbumsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExpandAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reading album batch...", step, total),
	}
}

func readTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExpandAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reading track metadata batch...", step, total),
	}
}

func filterUpdate(kept, excluded int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FilterBlacklist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Blacklist filter: %d kept, %d excluded", kept, excluded),
	}
}

func dedupUpdate(distinct, duplicates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dedup,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Deduplicated: %d distinct, %d duplicates dropped", distinct, duplicates),
	}
}

func writeChunkUpdate(step, total, size int, replace bool) ProgressUpdate {
	verb := "Appending"
	if replace {
		verb = "Replacing with"
	}
	return ProgressUpdate{
		Phase:   WriteChunks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %d tracks...", step, total, verb, size),
	}
}

func wipeChunkUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WipeSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removing %d tracks from reference...", step, total, size),
	}
}

func doneUpdate(result *ReconcileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: Done,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Wrote %d tracks in %d chunks, wiped %d from reference",
			result.Written, result.Chunks, result.Wiped),
		Data: result,
	}
}

func compareUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s for comparison...", name),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, name, trackCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
