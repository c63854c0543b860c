// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Account email to act for",
	}
}

// setupCommand handles database and configuration initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles platform authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage platform authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize a platform account via OAuth2",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "platform"},
				},
				Flags:  []cli.Flag{configFlag(), userFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show connected platforms and token state",
				Flags:  []cli.Flag{userFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:  "disconnect",
				Usage: "Remove stored credentials for a platform",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "platform"},
				},
				Flags:  []cli.Flag{userFlag()},
				Action: r.AuthDisconnect,
			},
			{
				Name:  "log",
				Usage: "Show recorded platform actions",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Filter by platform",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthLog,
			},
		},
	}
}

// syncCommand runs library synchronization against a platform.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync the local library with a platform's saved tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "platform"},
		},
		Flags:  []cli.Flag{configFlag(), userFlag()},
		Action: r.SyncRun,
	}
}

// libraryCommand handles local library operations.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect and manage the unified library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved tracks",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "export",
				Usage: "Export the library to a file",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, markdown or text)",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: library.<ext>)",
					},
				},
				Action: r.LibraryExport,
			},
			{
				Name:  "remove",
				Usage: "Remove one saved track by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{userFlag()},
				Action: r.LibraryRemove,
			},
			{
				Name:  "clear",
				Usage: "Remove every saved track for the account",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.LibraryClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive library management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive library browser",
		Flags: []cli.Flag{
			configFlag(),
			userFlag(),
			&cli.StringFlag{
				Name:  "platform",
				Usage: "Platform offered as the sync target",
				Value: "spotify",
			},
		},
		Action: r.TUI,
	}
}
