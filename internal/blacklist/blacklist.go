// Package blacklist persists the set of artists whose tracks are excluded
// from reconciliation and applies that set to candidate track lists.
//
// Exclusion checks the lead (first-credited) artist only. Collaborators and
// featured artists are not checked, which favors precision over recall on
// multi-artist tracks.
package blacklist

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"radarsync/internal/services"
	"radarsync/internal/shared"
)

// Store is the read contract the reconciliation run consumes. Mutations are
// an operator concern and live on the concrete implementations.
type Store interface {
	// Contains reports whether the artist is blacklisted, matching by
	// provider ID first and falling back to the folded name.
	Contains(artist services.Artist) bool

	// Artists returns every blacklisted artist.
	Artists() []services.Artist
}

// Filter partitions tracks by the lead-artist rule: a track is excluded iff
// its first credited artist is in the store. Tracks without artist credits
// are kept.
func Filter(tracks []services.Track, store Store) (kept, excluded []services.Track) {
	for _, track := range tracks {
		lead := track.LeadArtist()
		if lead.Name == "" && lead.ID == "" {
			kept = append(kept, track)
			continue
		}
		if store.Contains(lead) {
			excluded = append(excluded, track)
			continue
		}
		kept = append(kept, track)
	}
	return kept, excluded
}

// NormalizeName folds an artist name for comparison: diacritics removed,
// lower-cased, surrounding space trimmed.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// fileData mirrors the on-disk TOML shape:
//
//	[[blacklist.artists]]
//	name = "..."
//	id = "..."
type fileData struct {
	Blacklist struct {
		Artists []entry `toml:"artists"`
	} `toml:"blacklist"`
}

type entry struct {
	Name string `toml:"name"`
	ID   string `toml:"id"`
}

// FileStore is the TOML-backed blacklist used by the CLI and the reconcile
// task. Not safe for concurrent mutation; a run is the sole user.
type FileStore struct {
	path    string
	entries []entry
	byID    map[string]struct{}
	byName  map[string]struct{}
}

// Load reads the blacklist at path. A missing file yields an empty store so
// first runs work without setup.
func Load(path string) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		byID:   make(map[string]struct{}),
		byName: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read blacklist: %v", shared.ErrFileRead, err)
	}

	var file fileData
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse blacklist: %v", shared.ErrInvalidConfig, err)
	}

	for _, e := range file.Blacklist.Artists {
		fs.index(e)
	}
	return fs, nil
}

func (fs *FileStore) index(e entry) {
	fs.entries = append(fs.entries, e)
	if e.ID != "" {
		fs.byID[e.ID] = struct{}{}
	}
	if e.Name != "" {
		fs.byName[NormalizeName(e.Name)] = struct{}{}
	}
}

func (fs *FileStore) Contains(artist services.Artist) bool {
	if artist.ID != "" {
		if _, ok := fs.byID[artist.ID]; ok {
			return true
		}
	}
	if artist.Name != "" {
		if _, ok := fs.byName[NormalizeName(artist.Name)]; ok {
			return true
		}
	}
	return false
}

func (fs *FileStore) Artists() []services.Artist {
	artists := make([]services.Artist, 0, len(fs.entries))
	for _, e := range fs.entries {
		artists = append(artists, services.Artist{ID: e.ID, Name: e.Name})
	}
	return artists
}

// Add inserts an artist and reports whether it was new. Duplicate IDs and
// duplicate folded names are rejected.
func (fs *FileStore) Add(artist services.Artist) bool {
	if fs.Contains(artist) {
		return false
	}
	fs.index(entry{Name: artist.Name, ID: artist.ID})
	return true
}

// Remove deletes an artist by ID or folded name and reports whether an entry
// was removed.
func (fs *FileStore) Remove(artist services.Artist) bool {
	folded := NormalizeName(artist.Name)

	for i, e := range fs.entries {
		if (artist.ID != "" && e.ID == artist.ID) ||
			(folded != "" && NormalizeName(e.Name) == folded) {
			fs.entries = append(fs.entries[:i], fs.entries[i+1:]...)
			delete(fs.byID, e.ID)
			delete(fs.byName, NormalizeName(e.Name))
			return true
		}
	}
	return false
}

// Save writes the store back to its TOML file.
func (fs *FileStore) Save() error {
	var file fileData
	file.Blacklist.Artists = fs.entries

	f, err := os.Create(fs.path)
	if err != nil {
		return fmt.Errorf("%w: write blacklist: %v", shared.ErrFileWrite, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(file); err != nil {
		return fmt.Errorf("%w: encode blacklist: %v", shared.ErrFileWrite, err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	byID   map[string]struct{}
	byName map[string]struct{}
	all    []services.Artist
}

func NewMemStore(artists ...services.Artist) *MemStore {
	ms := &MemStore{
		byID:   make(map[string]struct{}),
		byName: make(map[string]struct{}),
	}
	for _, a := range artists {
		ms.all = append(ms.all, a)
		if a.ID != "" {
			ms.byID[a.ID] = struct{}{}
		}
		if a.Name != "" {
			ms.byName[NormalizeName(a.Name)] = struct{}{}
		}
	}
	return ms
}

func (ms *MemStore) Contains(artist services.Artist) bool {
	if artist.ID != "" {
		if _, ok := ms.byID[artist.ID]; ok {
			return true
		}
	}
	if artist.Name != "" {
		if _, ok := ms.byName[NormalizeName(artist.Name)]; ok {
			return true
		}
	}
	return false
}

func (ms *MemStore) Artists() []services.Artist {
	return ms.all
}
