package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"radarsync/internal/formatter"
	"radarsync/internal/shared"
	"radarsync/internal/tasks"
)

// Export writes one playlist, or every playlist with --all, to files in the
// chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	format := strings.ToLower(cmd.String("format"))
	outputDir := cmd.String("output")
	all := cmd.Bool("all")
	workers := cmd.Int("workers")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'radarsync auth login'", shared.ErrServiceUnavailable)
	}

	switch format {
	case "json", "csv", "markdown", "txt":
	default:
		return fmt.Errorf("%w: format must be json, csv, markdown or txt", shared.ErrInvalidFlag)
	}

	if all {
		return r.exportAll(ctx, format, outputDir, int(workers))
	}

	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID argument (or --all)", shared.ErrMissingArgument)
	}

	return r.exportOne(ctx, playlistID, format, outputDir)
}

func (r *Runner) exportOne(ctx context.Context, playlistID, format, outputDir string) error {
	r.logger.Info("exporting playlist", "id", playlistID, "format", format)

	playlist, err := r.spotify.GetPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	base := ""
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
		}
		base = filepath.Join(outputDir, playlist.ID)
	}

	var files []string
	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(playlist, base)
		if err != nil {
			return err
		}
		files = []string{result.TracksFile, result.MetadataFile}
	case "markdown":
		result, err := formatter.WriteMarkdownExport(playlist, outputDir, "")
		if err != nil {
			return err
		}
		files = result.Files
	case "txt":
		var path string
		if base != "" {
			path = base + "_tracks.txt"
		}
		file, err := formatter.WriteTextExport(playlist, path)
		if err != nil {
			return err
		}
		files = []string{file}
	default:
		var path string
		if base != "" {
			path = base + ".json"
		}
		file, err := formatter.WriteJSONExport(playlist, path)
		if err != nil {
			return err
		}
		files = []string{file}
	}

	r.writePlain("✓ Playlist exported: %s\n", playlist.Name)
	r.writePlain("  Tracks: %d\n", len(playlist.Tracks))
	for _, f := range files {
		r.writePlain("  Wrote: %s\n", f)
	}

	return nil
}

func (r *Runner) exportAll(ctx context.Context, format, outputDir string, workers int) error {
	playlists, err := r.spotify.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}

	r.writePlain("Exporting %d playlists as %s...\n\n", len(ids), format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			r.writePlain("  %s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  outputDir,
		NumWorkers: workers,
	})
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d playlists\n", result.SuccessfulExports, result.TotalPlaylists)
	if result.FailedExports > 0 {
		r.writePlain("Failed: %d playlists\n", result.FailedExports)
		for _, pr := range result.Results {
			if !pr.Success {
				r.writePlain("  ✗ %s: %v\n", pr.PlaylistID, pr.Error)
			}
		}
	}
	r.writePlain("Output directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	return nil
}
