package ui

import (
	"radarsync/internal/services"
	"radarsync/internal/tasks"
)

// playlistsFetchedMsg carries the user's playlists after the initial fetch.
type playlistsFetchedMsg struct {
	playlists []services.Playlist
	err       error
}

// tracksFetchedMsg carries the resolved reference playlist for preview.
type tracksFetchedMsg struct {
	playlist *services.Playlist
	err      error
}

// progressUpdateMsg wraps a single [tasks.ProgressUpdate] from the run.
type progressUpdateMsg tasks.ProgressUpdate

// reconcileCompleteMsg signals the end of a run, successful or not.
type reconcileCompleteMsg struct {
	result *tasks.ReconcileResult
	err    error
}
