// Package fingerprint derives content-identity keys for tracks and classifies
// track collections into distinct and duplicate recordings.
//
// Two tracks are the same recording when their catalog code (ISRC), credited
// artist names, and whole-second duration all match. Titles vary cosmetically
// across regional releases ("(Remastered)" suffixes, featuring credits), so
// the normalized title is carried for display and for the missing-ISRC
// fallback only and never participates in equality when a catalog code is
// present.
package fingerprint

import (
	"regexp"
	"strconv"
	"strings"

	"radarsync/internal/services"
)

var (
	featCredit = regexp.MustCompile(`(?i)\s*[(\[]?(feat\.|featuring)[^)\]]*[)\]]?`)
	spaceRuns  = regexp.MustCompile(`\s+`)
)

// Fingerprint is the derived, immutable content identity of a track.
//
// TrackID is retained so a fingerprint can be mapped back to a writable
// provider identifier; it is excluded from [Fingerprint.Key].
type Fingerprint struct {
	CatalogCode string
	Title       string
	Artists     []string
	DurationSec int
	TrackID     string
}

// New computes a fingerprint from a normalized track. It never fails: a
// missing catalog code switches [Fingerprint.Key] to the title fallback.
func New(track services.Track) Fingerprint {
	artists := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		artists[i] = strings.ToLower(a.Name)
	}

	return Fingerprint{
		CatalogCode: track.ISRC,
		Title:       NormalizeTitle(track.Title),
		Artists:     artists,
		DurationSec: track.DurationSec,
		TrackID:     track.ID,
	}
}

// Key returns the identity key two fingerprints are compared by: catalog code,
// artist names in credited order, and duration in whole seconds.
//
// When the catalog code is absent the normalized title substitutes for it.
// This is the looser of the two possible fallbacks: such tracks still take
// part in dedup, at the cost of occasionally conflating re-recordings that
// share a title, artists, and duration.
func (f Fingerprint) Key() string {
	var b strings.Builder

	if f.CatalogCode != "" {
		b.WriteString("isrc\x00")
		b.WriteString(f.CatalogCode)
	} else {
		b.WriteString("title\x00")
		b.WriteString(f.Title)
	}

	for _, artist := range f.Artists {
		b.WriteByte('\x00')
		b.WriteString(artist)
	}

	b.WriteString("\x00#")
	b.WriteString(strconv.Itoa(f.DurationSec))

	return b.String()
}

// Equal reports whether two fingerprints identify the same recording.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Key() == other.Key()
}

// NormalizeTitle lower-cases a title, strips featuring credits and common
// release-variant suffixes, and collapses whitespace runs.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = featCredit.ReplaceAllString(t, "")
	t = strings.ReplaceAll(t, " - radio edit", "")
	t = strings.ReplaceAll(t, " - remastered", "")
	return spaceRuns.ReplaceAllString(strings.TrimSpace(t), " ")
}
