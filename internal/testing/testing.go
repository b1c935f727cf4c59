// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"radarsync/internal/services"
)

// MockService is a configurable test double for [services.Service]. Read
// methods serve from the fixture maps; write methods record their arguments
// so tests can assert on exactly what was sent.
type MockService struct {
	Playlists map[string]*services.Playlist
	Albums    map[string]services.Album
	Tracks    map[string]services.Track
	Followed  []services.Artist
	Saved     []services.Track

	// Recorded write calls, keyed by playlist ID, in call order.
	Replaced     map[string][][]string
	Added        map[string][][]string
	Removed      map[string][][]string
	Descriptions map[string][]string

	// FailOn forces the named method to return an error.
	FailOn string
}

// NewMockService returns an empty mock ready for fixture population.
func NewMockService() *MockService {
	return &MockService{
		Playlists:    map[string]*services.Playlist{},
		Albums:       map[string]services.Album{},
		Tracks:       map[string]services.Track{},
		Replaced:     map[string][][]string{},
		Added:        map[string][][]string{},
		Removed:      map[string][][]string{},
		Descriptions: map[string][]string{},
	}
}

// WriteCalls returns the total number of mutating calls the mock has seen.
func (m *MockService) WriteCalls() int {
	count := 0
	for _, chunks := range m.Replaced {
		count += len(chunks)
	}
	for _, chunks := range m.Added {
		count += len(chunks)
	}
	for _, chunks := range m.Removed {
		count += len(chunks)
	}
	for _, descriptions := range m.Descriptions {
		count += len(descriptions)
	}
	return count
}

func (m *MockService) fail(method string) error {
	if m.FailOn == method {
		return fmt.Errorf("%s failed", method)
	}
	return nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	if err := m.fail("GetPlaylist"); err != nil {
		return nil, err
	}
	playlist, ok := m.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s not found", playlistID)
	}
	copied := *playlist
	return &copied, nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]services.Playlist, error) {
	if err := m.fail("GetPlaylists"); err != nil {
		return nil, err
	}
	out := make([]services.Playlist, 0, len(m.Playlists))
	for _, playlist := range m.Playlists {
		out = append(out, *playlist)
	}
	return out, nil
}

func (m *MockService) GetAlbums(ctx context.Context, albumIDs []string) ([]services.Album, error) {
	if err := m.fail("GetAlbums"); err != nil {
		return nil, err
	}
	out := make([]services.Album, 0, len(albumIDs))
	for _, id := range albumIDs {
		album, ok := m.Albums[id]
		if !ok {
			return nil, fmt.Errorf("album %s not found", id)
		}
		out = append(out, album)
	}
	return out, nil
}

func (m *MockService) GetTracks(ctx context.Context, trackIDs []string) ([]services.Track, error) {
	if err := m.fail("GetTracks"); err != nil {
		return nil, err
	}
	out := make([]services.Track, 0, len(trackIDs))
	for _, id := range trackIDs {
		track, ok := m.Tracks[id]
		if !ok {
			return nil, fmt.Errorf("track %s not found", id)
		}
		out = append(out, track)
	}
	return out, nil
}

func (m *MockService) ReplacePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := m.fail("ReplacePlaylistItems"); err != nil {
		return err
	}
	m.Replaced[playlistID] = append(m.Replaced[playlistID], append([]string(nil), trackIDs...))
	return nil
}

func (m *MockService) AddPlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := m.fail("AddPlaylistItems"); err != nil {
		return err
	}
	m.Added[playlistID] = append(m.Added[playlistID], append([]string(nil), trackIDs...))
	return nil
}

func (m *MockService) RemovePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := m.fail("RemovePlaylistItems"); err != nil {
		return err
	}
	m.Removed[playlistID] = append(m.Removed[playlistID], append([]string(nil), trackIDs...))
	return nil
}

func (m *MockService) ChangePlaylistDescription(ctx context.Context, playlistID, description string) error {
	if err := m.fail("ChangePlaylistDescription"); err != nil {
		return err
	}
	m.Descriptions[playlistID] = append(m.Descriptions[playlistID], description)
	return nil
}

func (m *MockService) FollowedArtists(ctx context.Context) ([]services.Artist, error) {
	if err := m.fail("FollowedArtists"); err != nil {
		return nil, err
	}
	return m.Followed, nil
}

func (m *MockService) SavedTracks(ctx context.Context) ([]services.Track, error) {
	if err := m.fail("SavedTracks"); err != nil {
		return nil, err
	}
	return m.Saved, nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
