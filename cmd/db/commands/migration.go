package commands

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MigrationCommands returns the schema migration commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Create the migration bookkeeping tables",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return deps.Migrator.Init(ctx)
			},
		},
		{
			Name:   "migrate",
			Usage:  "Apply pending migrations",
			Action: runLocked(deps, migrateUp),
		},
		{
			Name:   "rollback",
			Usage:  "Roll back the last migration group",
			Action: runLocked(deps, migrateDown),
		},
		{
			Name:   "status",
			Usage:  "Show migration status",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new Go migration file",
			ArgsUsage: "NAME",
			Action:    handleCreate(deps),
		},
	}
}

// runLocked holds the migration lock while fn runs.
func runLocked(deps *CLIDependencies, fn func(context.Context, *CLIDependencies) error) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Lock(ctx); err != nil {
			return err
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		return fn(ctx, deps)
	}
}

func migrateUp(ctx context.Context, deps *CLIDependencies) error {
	group, err := deps.Migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		deps.Logger.Info("Schema is up to date")
		return nil
	}

	deps.Logger.Info("Applied migrations", zap.String("group", group.String()))

	return nil
}

func migrateDown(ctx context.Context, deps *CLIDependencies) error {
	group, err := deps.Migrator.Rollback(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		deps.Logger.Info("Nothing to roll back")
		return nil
	}

	deps.Logger.Info("Rolled back migrations", zap.String("group", group.String()))

	return nil
}

func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return err
		}

		deps.Logger.Info("Migration status",
			zap.String("migrations", ms.String()),
			zap.String("unapplied", ms.Unapplied().String()),
			zap.String("last_group", ms.LastGroup().String()),
		)

		return nil
	}
}

func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, c.Args().First())
		if err != nil {
			return err
		}

		deps.Logger.Info("Created Go migration",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path),
		)

		return nil
	}
}
