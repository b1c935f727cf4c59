package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"radarsync/internal/formatter"
	"radarsync/internal/shared"
)

// Report prints archived runs, newest first, or a single run by ID.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.StringArg("id")

	db, runs, tracks, err := r.openRepositories()
	if err != nil {
		return err
	}
	defer db.Close()

	if runID != "" {
		run, err := runs.Get(runID)
		if err != nil {
			return err
		}
		r.writePlain("%s", formatter.RunReport(run))

		if cmd.Bool("tracks") {
			records, err := tracks.ListByRun(runID)
			if err != nil {
				return err
			}
			r.writePlain("\nTracks (%d):\n", len(records))
			for i, record := range records {
				r.writePlain("%d. %s - %s", i+1, record.Artist(), record.Title())
				if record.Album() != "" {
					r.writePlain(" (%s)", record.Album())
				}
				r.writePlain(" [%s]\n", shared.FormatDuration(record.Duration()))
			}
		}
		return nil
	}

	criteria := map[string]any{}
	if target := cmd.String("target"); target != "" {
		criteria["target_id"] = target
	}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}

	history, err := runs.List(criteria)
	if err != nil {
		return err
	}

	r.writePlain("%s", formatter.RunHistory(history))
	return nil
}
