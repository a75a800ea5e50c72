package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/peechi-bot/peechi/internal/bot/utils"
	"github.com/peechi-bot/peechi/internal/calendar"
	"go.uber.org/zap"
)

var calendarSyncCommand = discord.SlashCommandCreate{
	Name:                     constants.CalendarSyncCommandName,
	Description:              "Sync Google Calendar events to Discord guild events",
	DefaultMemberPermissions: restrictedTo(discord.PermissionManageEvents),
}

// CalendarSync mirrors upcoming calendar events into guild scheduled events
// and summarizes what changed.
func (h *Handlers) CalendarSync(ctx context.Context, event interaction.Event) error {
	if !interaction.HasPermission(event, discord.PermissionManageEvents) {
		return interaction.Validation("You need the Manage Events permission to do that.")
	}

	if h.calendar == nil {
		return interaction.NotFound("Google Calendar is not configured.")
	}

	if err := event.Defer(false); err != nil {
		return err
	}

	result, err := h.calendar.Sync(ctx, h.guild)
	if err != nil {
		return interaction.External(
			fmt.Sprintf("**Sync failed:** %v\n\nPlease check the bot logs for more details.", err), err)
	}

	h.logger.Info("Calendar sync finished",
		zap.Int("fetched", result.Fetched),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("deleted", len(result.Deleted)),
		zap.Int("failed", len(result.Failed)))

	if result.Fetched == 0 {
		return editContent(ctx, event, "No upcoming events found in Google Calendar.")
	}

	if result.Changes() == 0 && len(result.Failed) == 0 {
		return editContent(ctx, event, fmt.Sprintf("All %d calendar events are already up to date.", result.Fetched))
	}

	return event.EditReply(ctx, discord.NewMessageUpdateBuilder().
		SetEmbeds(syncSummaryEmbed(result)).
		Build())
}

func syncSummaryEmbed(result *calendar.Result) discord.Embed {
	color := constants.CalendarUnchangedColor
	if result.Changes() > 0 {
		color = constants.CalendarChangedColor
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Calendar Sync Complete").
		SetColor(color).
		SetTimestamp(time.Now())

	sections := []struct {
		name  string
		items []string
		limit int
	}{
		{"Created Events", result.Created, constants.CalendarListedPerSection},
		{"Updated Events", result.Updated, constants.CalendarListedPerSection},
		{"Deleted Events", result.Deleted, constants.CalendarListedPerSection},
		{"Failed Events", result.Failed, constants.CalendarListedFailures},
	}

	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}
		embed.AddField(
			fmt.Sprintf("%s (%d)", section.name, len(section.items)),
			utils.BulletList(section.items, section.limit),
			false)
	}

	if result.Changes() == 0 && len(result.Failed) == 0 {
		embed.SetDescription("No changes were needed - all events are up to date.")
	}

	shown := min(constants.CalendarListedPerSection, len(result.Created)) +
		min(constants.CalendarListedPerSection, len(result.Updated)) +
		min(constants.CalendarListedPerSection, len(result.Deleted))
	if hidden := result.Changes() - shown; hidden > 0 {
		embed.SetFooterText(fmt.Sprintf("... and %d more events processed", hidden))
	}

	return embed.Build()
}

func editContent(ctx context.Context, event interaction.Event, content string) error {
	return event.EditReply(ctx, discord.NewMessageUpdateBuilder().SetContent(content).Build())
}
