// Package handlers implements the bot's slash commands, context menus and buttons.
package handlers

import (
	"context"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/peechi-bot/peechi/internal/bot/router"
	"github.com/peechi-bot/peechi/internal/calendar"
	"github.com/peechi-bot/peechi/internal/database/types"
	"github.com/peechi-bot/peechi/internal/reports"
	"go.uber.org/zap"
)

// Ledger is the part of the point ledger the handlers use.
type Ledger interface {
	GetUser(ctx context.Context, userID string) (*types.User, bool)
	UpdateProfile(ctx context.Context, userID, name, pronouns string) error
	GetLeaderboard(ctx context.Context, limit int) []*types.User
	InvalidateLeaderboard(ctx context.Context) error
}

// Settings provides the guild's operational settings.
type Settings interface {
	GetGuildSettings(ctx context.Context) (*types.GuildSetting, error)
	Reload(ctx context.Context) (*types.GuildSetting, error)
}

// Guild performs REST actions in the bot's guild.
type Guild interface {
	calendar.Guild

	SendMessage(ctx context.Context, channelID snowflake.ID, message discord.MessageCreate) error
	// ClearChannel deletes up to limit of the most recent messages and returns how many were removed.
	ClearChannel(ctx context.Context, channelID snowflake.ID, limit int) (int, error)
	SetNickname(ctx context.Context, userID snowflake.ID, nickname string) error
	AddRole(ctx context.Context, userID, roleID snowflake.ID) error
	// Latency is the gateway heartbeat round trip.
	Latency() time.Duration
}

// Dependencies are the services the handlers run on.
type Dependencies struct {
	Ledger   Ledger
	Reports  *reports.Registry
	Settings Settings
	Modals   *interaction.ModalWaiter
	// Calendar is nil when no calendar is configured.
	Calendar *calendar.Syncer
	Guild    Guild
	Logger   *zap.Logger

	// Modal waits default to constants.VerifyModalTimeout and constants.ReportModalTimeout.
	VerifyModalTimeout time.Duration
	ReportModalTimeout time.Duration
}

// Handlers holds the dependencies shared by every handler.
type Handlers struct {
	ledger   Ledger
	reports  *reports.Registry
	settings Settings
	modals   *interaction.ModalWaiter
	calendar *calendar.Syncer
	guild    Guild
	logger   *zap.Logger

	verifyTimeout time.Duration
	reportTimeout time.Duration
}

// Register adds every command, context menu and button to r.
func Register(r *router.Router, deps Dependencies) *Handlers {
	h := &Handlers{
		ledger:   deps.Ledger,
		reports:  deps.Reports,
		settings: deps.Settings,
		modals:   deps.Modals,
		calendar: deps.Calendar,
		guild:    deps.Guild,
		logger:   deps.Logger.Named("handlers"),

		verifyTimeout: orDefault(deps.VerifyModalTimeout, constants.VerifyModalTimeout),
		reportTimeout: orDefault(deps.ReportModalTimeout, constants.ReportModalTimeout),
	}

	r.AddCommand(router.Command{Create: pingCommand, Handle: h.Ping})
	r.AddCommand(router.Command{Create: pointsCommand, Handle: h.Points})
	r.AddCommand(router.Command{Create: verifyCommand, Handle: h.Verify})
	r.AddCommand(router.Command{Create: recacheCommand, Handle: h.Recache})
	r.AddCommand(router.Command{Create: failCommand, Handle: h.Fail})
	r.AddCommand(router.Command{Create: calendarSyncCommand, Handle: h.CalendarSync})

	r.AddContextMenu(router.ContextMenu{Create: reportMenu, Handle: h.ReportMessage})

	r.AddButton(router.Button{Prefix: constants.VerifyButtonCustomID, Handle: h.VerifyButton})
	r.AddButton(router.Button{Prefix: constants.ReportButtonPrefix, Handle: h.ReportCategory})

	return h
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// restrictedTo limits a command to members holding permissions by default.
func restrictedTo(permissions discord.Permissions) *json.Nullable[discord.Permissions] {
	return json.NewNullablePtr(permissions)
}

// guildSettings loads the settings, translating failures for the user.
func (h *Handlers) guildSettings(ctx context.Context) (*types.GuildSetting, error) {
	settings, err := h.settings.GetGuildSettings(ctx)
	if err != nil {
		return nil, interaction.Persistence(err)
	}
	return settings, nil
}
