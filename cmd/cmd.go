// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database setup and maintenance.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and maintenance commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if needed, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "purge",
				Usage: "Delete every song, cached distance and analysis error",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Confirm the purge",
					},
				},
				Action: r.SetupPurge,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// songsCommand handles the fingerprint store.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Fingerprint store operations",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Import analyzer output (JSON array or JSON lines, - for stdin)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.SongsImport,
			},
			{
				Name:  "list",
				Usage: "List fingerprinted songs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "album",
						Usage: "Only list songs of this album",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SongsList,
			},
			{
				Name:   "errors",
				Usage:  "List files the analyzer failed on",
				Action: r.SongsErrors,
			},
		},
	}
}

// cacheCommand handles the pair cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Pair cache operations",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Compute and store every missing pair of the library",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of goroutines computing comparisons",
						Value: 4,
					},
				},
				Action: r.CacheBuild,
			},
			{
				Name:  "stats",
				Usage: "Show cache and store counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "neighbors",
				Usage: "List the cached neighbors of a song, closest first",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of neighbors to show",
						Value: 20,
					},
				},
				Action: r.CacheNeighbors,
			},
		},
	}
}

// playlistCommand handles playlist generation and run history.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Generate playlists",
		Commands: []*cli.Command{
			{
				Name:   "songs",
				Usage:  "Queue songs one at a time, each close to the previous one",
				Flags:  append(traversalFlags(), scanFlags()...),
				Action: r.PlaylistSongs,
			},
			{
				Name:   "albums",
				Usage:  "Queue whole albums, each close to the previous one",
				Flags:  traversalFlags(),
				Action: r.PlaylistAlbums,
			},
			{
				Name:  "history",
				Usage: "List recent playlist runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistHistory,
			},
		},
	}
}

func traversalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "length",
			Aliases: []string{"n"},
			Usage:   "Number of steps (songs or albums); defaults to traversal.queue_length",
		},
		&cli.BoolFlag{
			Name:  "random",
			Usage: "Pick randomly among the closest candidates instead of the closest one",
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of closest candidates considered by --random",
		},
		&cli.StringFlag{
			Name:  "seed",
			Usage: "Start from this song instead of the end of the queue",
		},
		&cli.IntFlag{
			Name:  "rng-seed",
			Usage: "Seed for random selection, for reproducible runs",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Do not touch the player; queue into memory and print the result",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Follow the run in an interactive view",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown or csv",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Also write the result to this file",
		},
	}
}

func scanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "scan-order",
			Usage: "Library scan order: store or random",
		},
		&cli.BoolFlag{
			Name:  "similarity-gate",
			Usage: "Also require cosine similarity above traversal.similarity_threshold",
		},
		&cli.FloatFlag{
			Name:  "distance-threshold",
			Usage: "Accept candidates closer than this distance",
		},
	}
}
