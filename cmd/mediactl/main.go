// mediactl is the operations CLI: cache warming, super admin
// bootstrap and data-access verification against a live database.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/database"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "mediactl",
	})

	cfg := config.Load()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	r := newRunner(cfg, db, logger)

	app := &cli.Command{
		Name:  "mediactl",
		Usage: "Operational tooling for the media shelf API",
		Commands: []*cli.Command{
			warmCacheCommand(r),
			setSuperAdminCommand(r),
			verifyAccessCommand(r),
			purgeCacheCommand(r),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("command failed: %v", err)
	}
}

func warmCacheCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "warm-cache",
		Usage: "Pre-fetch provider details for the most reviewed media",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "How many media items to warm",
				Value:   25,
			},
		},
		Action: r.WarmCache,
	}
}

func setSuperAdminCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "set-super-admin",
		Usage: "Grant the SUPER_ADMIN role to a user by email",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Email address of the target user",
				Required: true,
			},
		},
		Action: r.SetSuperAdmin,
	}
}

func verifyAccessCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "verify-access",
		Usage: "Run read-only cross-user access checks against the database",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "sample",
				Usage: "How many users to sample for the checks",
				Value: 10,
			},
		},
		Action: r.VerifyAccess,
	}
}

func purgeCacheCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:   "purge-cache",
		Usage:  "Delete expired media cache rows",
		Action: r.PurgeCache,
	}
}
