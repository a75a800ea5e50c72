package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/peechi-bot/peechi/internal/bot"
	"github.com/peechi-bot/peechi/internal/setup"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// BotLogDir specifies where bot log files are stored.
const BotLogDir = "logs/bot_logs"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "bot",
		Usage: "Run the peechi Discord bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-dir",
				Value: BotLogDir,
				Usage: "directory for log sessions",
			},
			&cli.BoolFlag{
				Name:  "auto-migrate",
				Usage: "apply pending database migrations on startup",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c.String("log-dir"), c.Bool("auto-migrate"))
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Printf("Error: %v", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop has already run
	}
}

// run starts the bot and blocks until ctx is cancelled. Any error it returns
// happened during startup.
func run(ctx context.Context, logDir string, autoMigrate bool) error {
	app, err := setup.InitializeApp(ctx, setup.Options{
		Component:   "bot",
		LogDir:      logDir,
		AutoMigrate: autoMigrate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup()

	if err := app.Config.ValidateBot(); err != nil {
		app.Logger.Error("Invalid bot configuration", zap.Error(err))
		return err
	}

	discordBot, err := bot.New(ctx, app)
	if err != nil {
		app.Logger.Error("Failed to create bot", zap.Error(err))
		return err
	}

	if err := discordBot.Start(); err != nil {
		app.Logger.Error("Failed to start bot", zap.Error(err))
		discordBot.Close()
		return err
	}

	app.Logger.Info("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")
	<-ctx.Done()

	app.Logger.Info("Shutdown signal received")
	discordBot.Close()

	return nil
}
