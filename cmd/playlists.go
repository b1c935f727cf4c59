package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"radarsync/internal/shared"
)

// Playlists lists the user's Spotify playlists with optional limit.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'radarsync auth login'", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing spotify playlists with limit %v", limit)

	playlists, err := r.spotify.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if save {
		saveFile := "spotify_playlists.json"
		data, err := shared.MarshalJSON(playlists, true)
		if err != nil {
			return fmt.Errorf("failed to marshal playlists: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save playlists", "error", err)
		} else {
			r.logger.Info("playlists saved", "file", saveFile)
		}
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("   Visibility: %s\n", shared.VisibilityString(p.Public))
		switch p.ID {
		case r.config.Playlists.ReferenceID:
			r.writePlain("   Role: reference\n")
		case r.config.Playlists.TargetID:
			r.writePlain("   Role: target\n")
		case r.config.Playlists.StockID:
			r.writePlain("   Role: stock (never written)\n")
		}
		r.writePlain("\n")
	}

	return nil
}
