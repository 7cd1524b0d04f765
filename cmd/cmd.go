// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// serveCommand runs the HTTP surface.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the short-video API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// syncCommand links an integration to a generator account.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Link an integration to a generator platform account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "org",
				Usage:    "Organization ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "integration",
				Aliases:  []string{"i"},
				Usage:    "Integration ID",
				Required: true,
			},
		},
		Action: r.Sync,
	}
}

// cascadeCommand deletes every account linked to an integration.
func cascadeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cascade",
		Usage: "Delete every generator account linked to an integration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "integration",
				Aliases:  []string{"i"},
				Usage:    "Integration ID",
				Required: true,
			},
		},
		Action: r.Cascade,
	}
}

// resolveCommand prints a resolved task config without calling the generator.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a task config from defaults and overrides",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base",
				Usage: "JSON file with the base defaults",
			},
			&cli.StringFlag{
				Name:  "overrides",
				Usage: "JSON file with the task overrides",
			},
			&cli.StringFlag{
				Name:     "integration",
				Aliases:  []string{"i"},
				Usage:    "Integration ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "platform",
				Usage: "Target platform",
			},
			&cli.BoolFlag{
				Name:  "envelope",
				Usage: "Print the full task request instead of the config",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Resolve,
	}
}

// integrationsCommand manages the local integration records.
func integrationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "integrations",
		Aliases: []string{"int"},
		Usage:   "Manage integrations",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add or update an integration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Integration ID (generated when empty)",
					},
					&cli.StringFlag{
						Name:     "org",
						Usage:    "Organization ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "provider",
						Usage:    "Provider identifier, e.g. youtube-channel",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name",
					},
					&cli.StringFlag{
						Name:  "picture",
						Usage: "Avatar URL",
					},
					&cli.StringFlag{
						Name:  "internal-id",
						Usage: "Provider-native account ID",
					},
					&cli.StringFlag{
						Name:  "root-internal-id",
						Usage: "Parent account ID for sub-channels",
					},
				},
				Action: r.IntegrationsAdd,
			},
			{
				Name:  "list",
				Usage: "List an organization's integrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "org",
						Usage:    "Organization ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.IntegrationsList,
			},
			{
				Name:  "remove",
				Usage: "Delete linked generator accounts, then the integration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "org",
						Usage:    "Organization ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Integration ID",
						Required: true,
					},
				},
				Action: r.IntegrationsRemove,
			},
		},
	}
}
