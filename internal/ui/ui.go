package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"radarsync/internal/services"
	"radarsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	ReconcileView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	view          ViewState
	spotify       services.Service
	engine        *tasks.Reconciler
	request       tasks.ReconcileRequest
	width         int
	height        int
	playlistList  list.Model
	playlists     []services.Playlist
	trackList     list.Model
	reference     *services.Playlist
	progressChan  chan tasks.ProgressUpdate
	reconcileDone chan reconcileCompleteMsg
	progress      tasks.ProgressUpdate
	result        *tasks.ReconcileResult
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a new TUI model with the provided dependencies. The
// request's TargetID comes from configuration; the ReferenceID is replaced
// by whichever playlist the user selects.
func NewModel(ctx context.Context, spotify services.Service, engine *tasks.Reconciler, request tasks.ReconcileRequest) *Model {
	return &Model{
		ctx:     ctx,
		view:    PlaylistListView,
		spotify: spotify,
		engine:  engine,
		request: request,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		selected := 0
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
			if pl.ID == m.request.ReferenceID {
				selected = i
			}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Pick the reference playlist"
		m.playlistList.Select(selected)
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.reference = msg.playlist
		m.request.ReferenceID = msg.playlist.ID
		items := make([]list.Item, len(msg.playlist.Tracks))
		for i, track := range msg.playlist.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case reconcileCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.reconcileDone = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ReconcileView:
		return m.renderReconcile()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				return m, m.fetchTracks(pl.playlist.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = ReconcileView
		return m, m.startReconcile()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.reference = nil
		m.result = nil
		m.err = nil
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.spotify.GetPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.spotify.GetPlaylist(m.ctx, playlistID)
		return tracksFetchedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) startReconcile() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.reconcileDone = make(chan reconcileCompleteMsg, 1)

	go func(progress chan tasks.ProgressUpdate, done chan<- reconcileCompleteMsg) {
		result, err := m.engine.Reconcile(m.ctx, m.request, progress)
		close(progress)
		done <- reconcileCompleteMsg{result: result, err: err}
	}(m.progressChan, m.reconcileDone)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	done := m.reconcileDone
	return func() tea.Msg {
		if progress == nil {
			return <-done
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	runKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "reconcile"),
	)
	helpKeys := []key.Binding{runKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Reconcile '%s' into the album mirror?", m.reference.Name))
	info := fmt.Sprintf(
		"\nReference: %s (%d tracks)\nTarget: %s\n\nThe target is regenerated in full and the reference is wiped afterwards.\n",
		m.reference.Name, len(m.reference.Tracks), m.request.TargetID,
	)
	if m.request.KeepReference {
		info += "The reference wipe is disabled for this run.\n"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderReconcile() string {
	title := styles.title.Render("Reconciling Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.ResolvePlaylists:
		phase = fmt.Sprintf("Resolving playlists (%d/%d)...", m.progress.Step, m.progress.Total)
	case tasks.ExpandAlbums:
		phase = fmt.Sprintf("Expanding albums (batch %d/%d)", m.progress.Step, m.progress.Total)
	case tasks.FilterBlacklist:
		phase = "Applying artist blacklist..."
	case tasks.Dedup:
		phase = "Deduplicating by fingerprint..."
	case tasks.WriteChunks:
		phase = fmt.Sprintf("Writing to target (chunk %d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WipeSource:
		phase = fmt.Sprintf("Wiping reference (chunk %d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Reconcile Complete!")
	info := fmt.Sprintf(
		"\nReference: %s (%d tracks)\nTarget: %s\n\nAlbums expanded: %d\nCandidates: %d\nWritten: %d (%d chunks)\nWiped from reference: %d\nTook: %s",
		m.result.ReferenceName,
		m.result.ReferenceTracks,
		m.result.TargetName,
		m.result.AlbumsExpanded,
		m.result.Candidates,
		m.result.Written,
		m.result.Chunks,
		m.result.Wiped,
		m.result.FinishedAt.Sub(m.result.StartedAt).Round(time.Millisecond),
	)

	var skipped string
	if m.result.Blacklisted > 0 || m.result.Duplicates > 0 {
		skipped = "\n\n" + styles.warn.Render(fmt.Sprintf(
			"Skipped %d blacklisted and %d duplicate tracks", m.result.Blacklisted, m.result.Duplicates))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, skipped, helpView)
}
