// Package commands implements the subcommands of the db tool.
package commands

import (
	"errors"

	"github.com/peechi-bot/peechi/internal/database"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired    = errors.New("NAME argument required")
	ErrNothingToUpdate = errors.New("no settings given to update")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
}
