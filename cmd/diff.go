package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"radarsync/internal/fingerprint"
	"radarsync/internal/shared"
	"radarsync/internal/tasks"
)

// Diff compares two playlists by content fingerprint so regional duplicates
// of the same recording count as matched.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source-id")
	destID := cmd.String("dest-id")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'radarsync auth login'", shared.ErrServiceUnavailable)
	}

	r.logger.Info("diff requested", "source", sourceID, "dest", destID)
	r.writePlain("Comparing playlists...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := r.engine.Diff(ctx, sourceID, destID, progressCh)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Source: %s (%d tracks)\n", result.Source.Name, len(result.Source.Tracks))
	r.writePlain("✓ Destination: %s (%d tracks)\n\n", result.Dest.Name, len(result.Dest.Tracks))

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d tracks\n", result.Matched)
	r.writePlain("Missing from destination: %d tracks\n", len(result.MissingInDest))
	r.writePlain("Extra in destination: %d tracks\n\n", len(result.ExtraInDest))

	if len(result.MissingInDest) > 0 {
		r.writePlain("Missing from destination:\n")
		r.writeFingerprints(result.MissingInDest)
		r.writePlain("\n")
	}

	if len(result.ExtraInDest) > 0 {
		r.writePlain("Extra in destination (not in source):\n")
		r.writeFingerprints(result.ExtraInDest)
	}

	return nil
}

func (r *Runner) writeFingerprints(prints []fingerprint.Fingerprint) {
	for i, fp := range prints {
		r.writePlain("  %d. %s - %s", i+1, strings.Join(fp.Artists, ", "), fp.Title)
		if fp.CatalogCode != "" {
			r.writePlain(" [%s]", fp.CatalogCode)
		}
		r.writePlain("\n")
	}
}
