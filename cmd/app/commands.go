// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/stemmww/recipeshare/internal/config"
	"codeberg.org/stemmww/recipeshare/internal/database"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/services/auth"
	"codeberg.org/stemmww/recipeshare/internal/services/recovery"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// withDB opens the configured database for the duration of fn.
func withDB(cmd *cli.Command, fn func(cfg *config.Config, db *sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	return fn(cfg, db)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Print the current schema version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
						version, err := database.Version(db.DB)
						if err != nil {
							return err
						}
						fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", version)
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
						return database.MigrateDown(db.DB)
					})
				},
			},
			{
				Name:  "reset",
				Usage: "Roll back every migration, dropping all data",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
						return database.MigrateReset(db.DB)
					})
				},
			},
		},
	}
}

// emailFlag selects the account an operator command acts on.
func emailFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:     "email",
		Usage:    usage,
		Required: true,
	}
}

// lookupUser resolves the --email flag of an operator command.
func lookupUser(ctx context.Context, cmd *cli.Command, repo *repository.Repository) (*models.User, error) {
	user, err := repo.GetUserByEmail(ctx, cmd.String("email"))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("no account for %s", cmd.String("email"))
	}
	return user, err
}

func unlockCommand() *cli.Command {
	return &cli.Command{
		Name:  "unlock",
		Usage: "Unlock an account after too many failed logins",
		Flags: []cli.Flag{emailFlag("Email address of the locked account")},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withDB(cmd, func(cfg *config.Config, db *sqlx.DB) error {
				repo := repository.New(db)
				user, err := lookupUser(ctx, cmd, repo)
				if err != nil {
					return err
				}
				if err := auth.NewService(repo, &cfg.Auth, nil).Unlock(ctx, user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.Root().Writer, "unlocked %s\n", user.Email)
				return nil
			})
		},
	}
}

// resetTwoFactorCommand turns two-factor off for a user who lost both the
// authenticator and the recovery codes.
func resetTwoFactorCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-2fa",
		Usage: "Disable two-factor authentication and revoke recovery codes",
		Flags: []cli.Flag{emailFlag("Email address of the account")},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withDB(cmd, func(_ *config.Config, db *sqlx.DB) error {
				repo := repository.New(db)
				user, err := lookupUser(ctx, cmd, repo)
				if err != nil {
					return err
				}
				if err := repo.DisableTOTP(ctx, user.ID); err != nil {
					return fmt.Errorf("failed to disable two-factor: %w", err)
				}
				if err := recovery.NewService(repo).Revoke(ctx, user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.Root().Writer, "two-factor disabled for %s\n", user.Email)
				return nil
			})
		},
	}
}
