// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// updateCommand runs the reconcile: expand the reference playlist into whole
// albums, rewrite the target, wipe the reference.
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Rebuild the album mirror from the reference playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reference",
				Usage: "Reference playlist ID (defaults to playlists.reference_id)",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Target playlist ID (defaults to playlists.target_id)",
			},
			&cli.BoolFlag{
				Name:  "keep-reference",
				Usage: "Skip wiping the reference playlist after a successful run",
			},
			&cli.BoolFlag{
				Name:  "allow-duplicates",
				Usage: "Skip fingerprint deduplication",
			},
			&cli.BoolFlag{
				Name:  "no-archive",
				Usage: "Skip recording the run in the local database",
			},
		},
		Action: r.Update,
	}
}

// playlistsCommand lists the user's playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save API response locally",
			},
		},
		Action: r.Playlists,
	}
}

// exportCommand exports one or many playlists to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists to json, csv, markdown or txt files",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every playlist instead of a single ID",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers",
				Value: 5,
			},
		},
		Action: r.Export,
	}
}

// blacklistCommand manages the artist blacklist file.
func blacklistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "blacklist",
		Aliases: []string{"bl"},
		Usage:   "Manage the artist blacklist",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show blacklisted artists",
				Action: r.BlacklistList,
			},
			{
				Name:   "followed",
				Usage:  "List followed artists and their blacklist status",
				Action: r.BlacklistFollowed,
			},
			{
				Name:  "add",
				Usage: "Add an artist by name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Spotify artist ID (matches regional aliases exactly)",
					},
				},
				Action: r.BlacklistAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove an artist by name or ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Spotify artist ID",
					},
				},
				Action: r.BlacklistRemove,
			},
		},
	}
}

// authCommand handles Spotify OAuth.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check the persisted token",
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand initializes config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// reportCommand shows archived run history.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Show archived reconcile runs",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Usage: "Filter by target playlist ID",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status (completed or failed)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "tracks",
				Usage: "Include the written tracks for a single run",
			},
		},
		Action: r.Report,
	}
}

// diffCommand compares two playlists by content fingerprint.
func diffCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Compare two playlists by track fingerprint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source-id",
				Usage:    "Source playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dest-id",
				Usage:    "Destination playlist ID",
				Required: true,
			},
		},
		Action: r.Diff,
	}
}

// tuiCommand returns the top-level TUI command for interactive reconciliation.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist reconciliation",
		Action:  r.TUI,
	}
}
