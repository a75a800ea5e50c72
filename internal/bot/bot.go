// Package bot wires the Discord client to the router, handlers and event listeners.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	botEvents "github.com/peechi-bot/peechi/internal/bot/events"
	"github.com/peechi-bot/peechi/internal/bot/handlers"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/peechi-bot/peechi/internal/bot/router"
	"github.com/peechi-bot/peechi/internal/calendar"
	"github.com/peechi-bot/peechi/internal/ledger"
	"github.com/peechi-bot/peechi/internal/redis"
	"github.com/peechi-bot/peechi/internal/reports"
	"github.com/peechi-bot/peechi/internal/setup"
	"github.com/peechi-bot/peechi/internal/setup/telemetry/alert"
	"go.uber.org/zap"
)

// shutdownTimeout bounds closing the gateway.
const shutdownTimeout = 10 * time.Second

// Bot owns the Discord client and everything that serves its events.
type Bot struct {
	ctx      context.Context
	client   bot.Client
	router   *router.Router
	reports  *reports.Registry
	messages *botEvents.MessageEventHandler
	ready    *botEvents.ReadyEventHandler
	notifier *alert.Notifier
	guildID  snowflake.ID
	logger   *zap.Logger
}

// New builds the services, registers every handler and creates the Discord client.
// Nothing is contacted until Start.
func New(ctx context.Context, app *setup.App) (*Bot, error) {
	cfg := app.Config
	logger := app.Logger.Named("bot")

	var cache *ledger.LeaderboardCache
	if redisClient, err := app.RedisManager.GetClient(redis.CacheDBIndex); err != nil {
		logger.Warn("Leaderboard cache disabled", zap.Error(err))
	} else {
		cache = ledger.NewLeaderboardCache(redisClient, cfg.Bot.Points.LeaderboardTTL(), app.Logger)
	}

	pointLedger := ledger.NewService(app.DB.Model().User(), cache, app.Logger)
	settings := app.DB.Model().Setting()

	registry := reports.NewRegistry(app.Logger,
		reports.WithTTL(cfg.Bot.Reports.ReportTTL()),
		reports.WithSweepInterval(cfg.Bot.Reports.SweepInterval()),
		reports.WithMaxReports(cfg.Bot.Reports.MaxReports),
	)

	var syncer *calendar.Syncer
	if cfg.Bot.Calendar.APIKey != "" && cfg.Bot.Calendar.CalendarID != "" {
		source, err := calendar.NewGoogleSource(ctx, cfg.Bot.Calendar.APIKey, cfg.Bot.Calendar.CalendarID, app.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create calendar source: %w", err)
		}
		lookahead := time.Duration(cfg.Bot.Calendar.LookaheadDays) * 24 * time.Hour
		syncer = calendar.NewSyncer(source, cfg.Bot.Calendar.MaxEvents, lookahead, app.Logger)
	} else {
		logger.Info("Google Calendar not configured, /calendar-sync will be unavailable")
	}

	modals := interaction.NewModalWaiter()
	r := router.New(modals, app.Logger)

	b := &Bot{
		ctx:     ctx,
		router:  r,
		reports: registry,
		ready:   botEvents.NewReadyEventHandler(app.Logger),
		guildID: snowflake.ID(cfg.Bot.Discord.GuildID),
		logger:  logger,
	}

	listeners := &events.ListenerAdapter{
		OnReady:                         b.ready.OnReady,
		OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
		OnComponentInteraction:          b.handleComponentInteraction,
		OnModalSubmit:                   b.handleModalSubmit,
	}

	intents := []gateway.Intents{gateway.IntentGuilds}
	if cfg.Bot.Points.Disabled {
		logger.Info("Point scoring disabled")
	} else {
		b.messages = botEvents.NewMessageEventHandler(ctx, pointLedger, app.Logger)
		listeners.OnGuildMessageCreate = b.messages.OnGuildMessageCreate
		intents = append(intents, gateway.IntentGuildMessages, gateway.IntentMessageContent)
	}

	client, err := disgo.New(cfg.Bot.Discord.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(intents...)),
		bot.WithEventListeners(listeners),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}
	b.client = client

	guild := newGuildREST(client, b.guildID, app.Logger)

	handlers.Register(r, handlers.Dependencies{
		Ledger:   pointLedger,
		Reports:  registry,
		Settings: settings,
		Modals:   modals,
		Calendar: syncer,
		Guild:    guild,
		Logger:   app.Logger,
	})

	if app.Alerts != nil {
		b.notifier = alert.NewNotifier(app.Alerts, &alertSender{guild: guild, settings: settings}, app.LogManager.GetNotifierLogger())
	}

	return b, nil
}

// Start publishes the command catalogue to the guild, starts the background
// workers and opens the gateway.
func (b *Bot) Start() error {
	catalogue := b.router.Catalogue()
	b.logger.Info("Publishing commands",
		zap.Uint64("guildID", uint64(b.guildID)),
		zap.Int("count", len(catalogue)))

	if _, err := b.client.Rest().SetGuildCommands(b.client.ApplicationID(), b.guildID, catalogue); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.reports.Start(b.ctx)

	if b.notifier != nil {
		go b.notifier.Run(b.ctx)
	}

	b.logger.Info("Starting bot")
	if err := b.client.OpenGateway(b.ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	return nil
}

// Close shuts the gateway down and waits for in-flight handlers.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	b.client.Close(ctx)

	b.router.Wait()
	if b.messages != nil {
		b.messages.Wait()
	}
}

func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	b.router.Go(b.ctx, interaction.NewCommandEvent(event))
}

func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	b.router.Go(b.ctx, interaction.NewComponentEvent(event))
}

// handleModalSubmit only hands the submission to its waiting handler, so it
// runs inline.
func (b *Bot) handleModalSubmit(event *events.ModalSubmitInteractionCreate) {
	b.router.Dispatch(b.ctx, interaction.NewModalEvent(event))
}

var _ alert.Sender = (*alertSender)(nil)
