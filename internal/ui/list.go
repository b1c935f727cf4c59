package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"radarsync/internal/services"
	"radarsync/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [services.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist services.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [services.Track] to implement [list.Item].
type trackItem struct {
	track services.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.LeadArtist().Name
	if i.track.AlbumName != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.AlbumName)
	}
	return fmt.Sprintf("%s [%s]", desc, shared.FormatDuration(i.track.DurationSec))
}
