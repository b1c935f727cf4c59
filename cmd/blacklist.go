package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"radarsync/internal/blacklist"
	"radarsync/internal/services"
	"radarsync/internal/shared"
)

// BlacklistList prints the blocked artists.
func (r *Runner) BlacklistList(ctx context.Context, cmd *cli.Command) error {
	artists := r.store.Artists()
	if len(artists) == 0 {
		return r.writePlain("Blacklist is empty.\n")
	}

	r.writePlain("Blacklisted artists (%d):\n\n", len(artists))
	for i, artist := range artists {
		r.writePlain("%d. %s", i+1, artist.Name)
		if artist.ID != "" {
			r.writePlain(" (%s)", artist.ID)
		}
		r.writePlain("\n")
	}

	return nil
}

// BlacklistFollowed lists the user's followed artists and marks the blocked
// ones, so IDs can be copied into the blacklist.
func (r *Runner) BlacklistFollowed(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'radarsync auth login'", shared.ErrServiceUnavailable)
	}

	artists, err := r.spotify.FollowedArtists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("Followed artists (%d):\n\n", len(artists))
	for i, artist := range artists {
		r.writePlain("%d. %s (%s)", i+1, artist.Name, artist.ID)
		if r.store.Contains(artist) {
			r.writePlain("  [blacklisted]")
		}
		r.writePlain("\n")
	}

	return nil
}

// BlacklistAdd blocks an artist by name and optional ID.
func (r *Runner) BlacklistAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	id := cmd.String("id")
	if name == "" && id == "" {
		return fmt.Errorf("%w: artist name or --id", shared.ErrMissingArgument)
	}

	store, err := r.fileStore()
	if err != nil {
		return err
	}

	artist := services.Artist{ID: id, Name: name}
	if !store.Add(artist) {
		return r.writePlain("Already blacklisted: %s\n", name)
	}

	if err := store.Save(); err != nil {
		return err
	}

	r.logger.Info("artist blacklisted", "name", name, "id", id)
	return r.writePlain("✓ Blacklisted: %s\n", name)
}

// BlacklistRemove unblocks an artist by name or ID.
func (r *Runner) BlacklistRemove(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	id := cmd.String("id")
	if name == "" && id == "" {
		return fmt.Errorf("%w: artist name or --id", shared.ErrMissingArgument)
	}

	store, err := r.fileStore()
	if err != nil {
		return err
	}

	artist := services.Artist{ID: id, Name: name}
	if !store.Remove(artist) {
		return r.writePlain("Not blacklisted: %s\n", name)
	}

	if err := store.Save(); err != nil {
		return err
	}

	r.logger.Info("artist removed from blacklist", "name", name, "id", id)
	return r.writePlain("✓ Removed: %s\n", name)
}

// fileStore returns the runner's store as a writable [blacklist.FileStore],
// loading it from the configured path when the runner holds a read-only store.
func (r *Runner) fileStore() (*blacklist.FileStore, error) {
	if fs, ok := r.store.(*blacklist.FileStore); ok {
		return fs, nil
	}
	return blacklist.Load(r.config.Blacklist.Path)
}
