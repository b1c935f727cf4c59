package fingerprint

import "radarsync/internal/services"

// Collection partitions one track list's fingerprints by content identity.
//
// Full holds every fingerprint in input order. Distinct holds the first
// occurrence of each identity, in first-occurrence order; later occurrences
// land in Duplicates. Every occurrence is in exactly one of Distinct or
// Duplicates, and len(Full) == len(Distinct) + len(Duplicates).
type Collection struct {
	Full       []Fingerprint
	Distinct   []Fingerprint
	Duplicates []Fingerprint

	seen map[string]struct{}
}

// NewCollection returns an empty collection ready for [Collection.Insert].
func NewCollection() *Collection {
	return &Collection{seen: make(map[string]struct{})}
}

// Classify builds a collection from a full track sequence. It is equivalent
// to folding [Collection.Insert] over the same sequence.
func Classify(tracks []services.Track) *Collection {
	c := NewCollection()
	for _, track := range tracks {
		c.Insert(track)
	}
	return c
}

// Insert adds one track's fingerprint and reports whether its identity was
// new to the collection.
func (c *Collection) Insert(track services.Track) (Fingerprint, bool) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}

	fp := New(track)
	c.Full = append(c.Full, fp)

	key := fp.Key()
	if _, dup := c.seen[key]; dup {
		c.Duplicates = append(c.Duplicates, fp)
		return fp, false
	}

	c.seen[key] = struct{}{}
	c.Distinct = append(c.Distinct, fp)
	return fp, true
}

// Contains reports whether the collection already holds the identity.
func (c *Collection) Contains(fp Fingerprint) bool {
	_, ok := c.seen[fp.Key()]
	return ok
}

// MissingFrom returns every fingerprint in the reference's Distinct set whose
// identity is absent from other, in reference Distinct order. It answers
// "what does the other playlist not yet have," independent of which
// provider-assigned track identifiers the two sides used.
func MissingFrom(reference, other *Collection) []Fingerprint {
	var missing []Fingerprint
	for _, fp := range reference.Distinct {
		if !other.Contains(fp) {
			missing = append(missing, fp)
		}
	}
	return missing
}
