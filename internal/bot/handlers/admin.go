package handlers

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/peechi-bot/peechi/internal/setup/telemetry/alert"
	"go.uber.org/zap"
)

var recacheCommand = discord.SlashCommandCreate{
	Name:                     constants.RecacheCommandName,
	Description:              "Reload guild settings and drop cached leaderboards",
	DefaultMemberPermissions: restrictedTo(discord.PermissionAdministrator),
}

var failCommand = discord.SlashCommandCreate{
	Name:                     constants.FailCommandName,
	Description:              "Trigger test errors for debugging (Admin only)",
	DefaultMemberPermissions: restrictedTo(discord.PermissionAdministrator),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        constants.FailErrorSubcommand,
			Description: "Trigger a regular error",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        constants.FailCriticalSubcommand,
			Description: "Trigger a critical error",
		},
	},
}

// Recache reloads the guild settings row and invalidates the leaderboard cache.
func (h *Handlers) Recache(ctx context.Context, event interaction.Event) error {
	if !interaction.HasPermission(event, discord.PermissionAdministrator) {
		return interaction.Validation("You need the Administrator permission to do that.")
	}

	if _, err := h.settings.Reload(ctx); err != nil {
		return interaction.Persistence(err)
	}

	if err := h.ledger.InvalidateLeaderboard(ctx); err != nil {
		h.logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
	}

	h.logger.Info("Guild settings recached", zap.Uint64("userID", uint64(event.User().ID)))

	return event.Reply(interaction.Ephemeral("Guild settings recached"))
}

// Fail logs a test error so the alert pipeline can be checked end to end.
func (h *Handlers) Fail(ctx context.Context, event interaction.Event) error {
	if !interaction.HasPermission(event, discord.PermissionAdministrator) {
		return interaction.Validation("You need the Administrator permission to do that.")
	}

	data, _ := event.SlashCommand()

	var subcommand string
	if data.SubCommandName != nil {
		subcommand = *data.SubCommandName
	}

	user := event.User()
	fields := []zap.Field{
		zap.String("triggeredBy", user.Username),
		zap.Uint64("userID", uint64(user.ID)),
	}

	switch subcommand {
	case constants.FailErrorSubcommand:
		fields = append(fields,
			zap.String("severity", "low"),
			zap.Dict("context",
				zap.String("command", "/fail error"),
				zap.Uint64("channelID", uint64(event.ChannelID()))))
		h.logger.Error("Test error triggered by /fail command", fields...)

	case constants.FailCriticalSubcommand:
		fields = append(fields,
			zap.String("severity", "high"),
			zap.Dict("context",
				zap.String("command", "/fail critical"),
				zap.Uint64("channelID", uint64(event.ChannelID()))),
			alert.Critical())
		h.logger.Error("Test critical error triggered by /fail command", fields...)

	default:
		return interaction.Validation("Invalid subcommand. Please use one of the following: error, critical")
	}

	return event.Reply(interaction.Ephemeral("Error triggered"))
}
