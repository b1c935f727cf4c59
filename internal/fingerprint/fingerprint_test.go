package fingerprint

import (
	"testing"

	"radarsync/internal/services"
)

func track(id, title, isrc string, durationSec int, artists ...string) services.Track {
	t := services.Track{ID: id, Title: title, ISRC: isrc, DurationSec: durationSec}
	for _, name := range artists {
		t.Artists = append(t.Artists, services.Artist{ID: name, Name: name})
	}
	return t
}

func TestFingerprintEquality(t *testing.T) {
	tc := []struct {
		name  string
		a, b  services.Track
		equal bool
	}{
		{
			name:  "Title Casing Ignored",
			a:     track("t1", "Karma Police", "GBAYE9700063", 261, "Radiohead"),
			b:     track("t2", "KARMA POLICE", "GBAYE9700063", 261, "Radiohead"),
			equal: true,
		},
		{
			name:  "Remaster Suffix Ignored",
			a:     track("t1", "Karma Police", "GBAYE9700063", 261, "Radiohead"),
			b:     track("t2", "Karma Police (Remastered)", "GBAYE9700063", 261, "Radiohead"),
			equal: true,
		},
		{
			name:  "Track ID Never Participates",
			a:     track("t1", "Karma Police", "GBAYE9700063", 261, "Radiohead"),
			b:     track("completely-different", "Karma Police", "GBAYE9700063", 261, "Radiohead"),
			equal: true,
		},
		{
			name:  "Different Catalog Code",
			a:     track("t1", "Karma Police", "GBAYE9700063", 261, "Radiohead"),
			b:     track("t2", "Karma Police", "GBAYE0100504", 261, "Radiohead"),
			equal: false,
		},
		{
			name:  "Different Duration Bucket",
			a:     track("t1", "Karma Police", "GBAYE9700063", 261, "Radiohead"),
			b:     track("t2", "Karma Police", "GBAYE9700063", 262, "Radiohead"),
			equal: false,
		},
		{
			name:  "Artist Order Preserved",
			a:     track("t1", "Duet", "USX1", 200, "Artist A", "Artist B"),
			b:     track("t2", "Duet", "USX1", 200, "Artist B", "Artist A"),
			equal: false,
		},
		{
			name:  "Artist Casing Ignored",
			a:     track("t1", "Duet", "USX1", 200, "ARTIST A"),
			b:     track("t2", "Duet", "USX1", 200, "artist a"),
			equal: true,
		},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			fa, fb := New(c.a), New(c.b)
			if got := fa.Equal(fb); got != c.equal {
				t.Errorf("Equal = %v, want %v (keys %q vs %q)", got, c.equal, fa.Key(), fb.Key())
			}
		})
	}
}

func TestFingerprintMissingCatalogCode(t *testing.T) {
	t.Run("Never Panics", func(t *testing.T) {
		fp := New(track("t1", "Untraceable", "", 180, "Nobody"))
		if fp.CatalogCode != "" {
			t.Errorf("expected empty catalog code, got %q", fp.CatalogCode)
		}
		if fp.Key() == "" {
			t.Error("expected non-empty key")
		}
	})

	t.Run("Title Substitutes For Code", func(t *testing.T) {
		a := New(track("t1", "Untraceable", "", 180, "Nobody"))
		b := New(track("t2", "Untraceable (Remastered)", "", 180, "Nobody"))
		if !a.Equal(b) {
			t.Errorf("expected fallback identities to match: %q vs %q", a.Key(), b.Key())
		}

		c := New(track("t3", "Different Song", "", 180, "Nobody"))
		if a.Equal(c) {
			t.Error("expected different titles to stay distinct without a catalog code")
		}
	})

	t.Run("Fallback Does Not Collide With Coded Track", func(t *testing.T) {
		coded := New(track("t1", "Untraceable", "USX1", 180, "Nobody"))
		uncoded := New(track("t2", "Untraceable", "", 180, "Nobody"))
		if coded.Equal(uncoded) {
			t.Error("coded and uncoded identities must not collide")
		}
	})
}

func TestNormalizeTitle(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{"Karma Police", "karma police"},
		{"Karma Police - Remastered", "karma police"},
		{"One More Time - Radio Edit", "one more time"},
		{"Lost (feat. Somebody)", "lost"},
		{"Lost [featuring Somebody]", "lost"},
		{"  Spaced   Out  ", "spaced out"},
	}

	for _, c := range tc {
		if got := NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClassify(t *testing.T) {
	seq := []services.Track{
		track("t1", "Song A", "ISRC-A", 200, "X"),
		track("t2", "Song B", "ISRC-B", 210, "X"),
		track("t3", "Song A (Remastered)", "ISRC-A", 200, "X"), // dup of t1
		track("t4", "Song C", "ISRC-C", 190, "Y"),
		track("t5", "Song B", "ISRC-B", 210, "X"), // dup of t2
	}

	c := Classify(seq)

	t.Run("Partition Sizes", func(t *testing.T) {
		if len(c.Full) != 5 {
			t.Errorf("expected 5 full entries, got %d", len(c.Full))
		}
		if len(c.Distinct) != 3 {
			t.Errorf("expected 3 distinct identities, got %d", len(c.Distinct))
		}
		if len(c.Duplicates) != 2 {
			t.Errorf("expected 2 duplicates, got %d", len(c.Duplicates))
		}
		if len(c.Full) != len(c.Distinct)+len(c.Duplicates) {
			t.Error("every occurrence must land in exactly one partition")
		}
	})

	t.Run("First Occurrence Order", func(t *testing.T) {
		want := []string{"t1", "t2", "t4"}
		for i, fp := range c.Distinct {
			if fp.TrackID != want[i] {
				t.Errorf("distinct[%d] = %s, want %s", i, fp.TrackID, want[i])
			}
		}
	})

	t.Run("No Identity Twice In Distinct", func(t *testing.T) {
		keys := make(map[string]bool)
		for _, fp := range c.Distinct {
			if keys[fp.Key()] {
				t.Errorf("identity %q appears twice in distinct", fp.Key())
			}
			keys[fp.Key()] = true
		}
	})

	t.Run("Duplicates Collide With Distinct", func(t *testing.T) {
		for _, fp := range c.Duplicates {
			if !c.Contains(fp) {
				t.Errorf("duplicate %s has no distinct counterpart", fp.TrackID)
			}
		}
	})
}

func TestInsertMatchesClassify(t *testing.T) {
	seq := []services.Track{
		track("t1", "Song A", "ISRC-A", 200, "X"),
		track("t2", "Song A", "ISRC-A", 200, "X"),
		track("t3", "Song B", "", 210, "X"),
		track("t4", "Song B", "", 210, "X"),
		track("t5", "Song C", "ISRC-C", 190, "Y"),
	}

	batch := Classify(seq)

	incremental := NewCollection()
	wasNew := make([]bool, 0, len(seq))
	for _, tr := range seq {
		_, fresh := incremental.Insert(tr)
		wasNew = append(wasNew, fresh)
	}

	wantNew := []bool{true, false, true, false, true}
	for i, got := range wasNew {
		if got != wantNew[i] {
			t.Errorf("insert %d: wasNew = %v, want %v", i, got, wantNew[i])
		}
	}

	if len(incremental.Distinct) != len(batch.Distinct) {
		t.Fatalf("distinct mismatch: incremental %d, batch %d",
			len(incremental.Distinct), len(batch.Distinct))
	}
	for i := range batch.Distinct {
		if incremental.Distinct[i].TrackID != batch.Distinct[i].TrackID {
			t.Errorf("distinct[%d]: incremental %s, batch %s",
				i, incremental.Distinct[i].TrackID, batch.Distinct[i].TrackID)
		}
	}
	if len(incremental.Duplicates) != len(batch.Duplicates) {
		t.Errorf("duplicates mismatch: incremental %d, batch %d",
			len(incremental.Duplicates), len(batch.Duplicates))
	}
}

func TestMissingFrom(t *testing.T) {
	a := Classify([]services.Track{
		track("a1", "Song A", "ISRC-A", 200, "X"),
		track("a2", "Song B", "ISRC-B", 210, "X"),
		track("a3", "Song C", "ISRC-C", 190, "Y"),
	})

	t.Run("Subset Yields Empty", func(t *testing.T) {
		b := Classify([]services.Track{
			track("b1", "Song A", "ISRC-A", 200, "X"),
			track("b2", "Song B", "ISRC-B", 210, "X"),
			track("b3", "Song C", "ISRC-C", 190, "Y"),
			track("b4", "Song D", "ISRC-D", 220, "Z"),
		})

		if missing := MissingFrom(a, b); len(missing) != 0 {
			t.Errorf("expected no missing fingerprints, got %d", len(missing))
		}
	})

	t.Run("Disjoint Yields All Of Reference", func(t *testing.T) {
		b := Classify([]services.Track{
			track("b1", "Song D", "ISRC-D", 220, "Z"),
		})

		missing := MissingFrom(a, b)
		if len(missing) != len(a.Distinct) {
			t.Fatalf("expected %d missing, got %d", len(a.Distinct), len(missing))
		}
		for i := range missing {
			if missing[i].TrackID != a.Distinct[i].TrackID {
				t.Errorf("missing[%d] = %s, want %s", i, missing[i].TrackID, a.Distinct[i].TrackID)
			}
		}
	})

	t.Run("Partial Overlap", func(t *testing.T) {
		b := Classify([]services.Track{
			track("b1", "Song B Extended Mix", "ISRC-B", 210, "X"),
		})

		missing := MissingFrom(a, b)
		if len(missing) != 2 {
			t.Fatalf("expected 2 missing, got %d", len(missing))
		}
		if missing[0].TrackID != "a1" || missing[1].TrackID != "a3" {
			t.Errorf("unexpected missing order: %s, %s", missing[0].TrackID, missing[1].TrackID)
		}
	})
}
