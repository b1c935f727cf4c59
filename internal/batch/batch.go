// package batch defines the per-operation batch ceilings of the Spotify Web API
// and the chunk planning used by every bulk read and write.
package batch

import "fmt"

// Operation identifies a remote API operation with a per-call identifier ceiling.
type Operation int

const (
	// AlbumBatchRead is GET /albums (20 album IDs per call).
	AlbumBatchRead Operation = iota
	// TrackBatchRead is GET /tracks (50 track IDs per call).
	TrackBatchRead
	// ArtistBatchRead is GET /artists (50 artist IDs per call).
	ArtistBatchRead
	// PlaylistItemWrite covers playlist replace and add (100 URIs per call).
	PlaylistItemWrite
	// PlaylistItemRemove is DELETE /playlists/{id}/tracks (100 URIs per call).
	PlaylistItemRemove
	// UserPagedListing covers the current-user paged endpoints (50 items per page).
	UserPagedListing
)

func (o Operation) String() string {
	switch o {
	case AlbumBatchRead:
		return "album_batch_read"
	case TrackBatchRead:
		return "track_batch_read"
	case ArtistBatchRead:
		return "artist_batch_read"
	case PlaylistItemWrite:
		return "playlist_item_write"
	case PlaylistItemRemove:
		return "playlist_item_remove"
	case UserPagedListing:
		return "user_paged_listing"
	default:
		return ""
	}
}

var limits = map[Operation]int{
	AlbumBatchRead:     20,
	TrackBatchRead:     50,
	ArtistBatchRead:    50,
	PlaylistItemWrite:  100,
	PlaylistItemRemove: 100,
	UserPagedListing:   50,
}

// Limit returns the maximum number of identifiers op accepts per call.
// An unknown operation is a programmer error and panics.
func Limit(op Operation) int {
	limit, ok := limits[op]
	if !ok {
		panic(fmt.Sprintf("batch: unknown operation %d", int(op)))
	}
	return limit
}

// IsValid reports whether count identifiers can be sent to op in one call.
func IsValid(op Operation, count int) bool {
	return count > 0 && count <= Limit(op)
}

// Chunk is one batch of a chunk plan. First marks the chunk that selects
// replace semantics downstream; later chunks append.
type Chunk struct {
	IDs   []string
	First bool
}

// Split builds the ordered chunk plan for ids under op's ceiling.
// The concatenation of the returned chunks reproduces ids exactly.
func Split(ids []string, op Operation) []Chunk {
	limit := Limit(op)
	if len(ids) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (len(ids)+limit-1)/limit)
	for start := 0; start < len(ids); start += limit {
		end := start + limit
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, Chunk{IDs: ids[start:end], First: start == 0})
	}

	return chunks
}
