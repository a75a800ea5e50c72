package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/peechi-bot/peechi/internal/bot/handlers"
	"github.com/peechi-bot/peechi/internal/calendar"
	"go.uber.org/zap"
)

// ErrErrorChannelMissing is returned when alerts cannot be delivered for lack of a channel.
var ErrErrorChannelMissing = errors.New("error channel is not configured")

// bulkDeleteMaxAge is slightly under Discord's two week bulk delete limit.
const bulkDeleteMaxAge = 14*24*time.Hour - time.Hour

// guildREST performs REST calls against the bot's guild.
type guildREST struct {
	client  bot.Client
	guildID snowflake.ID
	logger  *zap.Logger
}

func newGuildREST(client bot.Client, guildID snowflake.ID, logger *zap.Logger) *guildREST {
	return &guildREST{
		client:  client,
		guildID: guildID,
		logger:  logger.Named("guild_rest"),
	}
}

func (g *guildREST) SendMessage(ctx context.Context, channelID snowflake.ID, message discord.MessageCreate) error {
	_, err := g.client.Rest().CreateMessage(channelID, message, rest.WithCtx(ctx))
	return err
}

// ClearChannel bulk deletes recent messages and deletes older ones one by one.
func (g *guildREST) ClearChannel(ctx context.Context, channelID snowflake.ID, limit int) (int, error) {
	messages, err := g.client.Rest().GetMessages(channelID, 0, 0, 0, limit, rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	cutoff := time.Now().Add(-bulkDeleteMaxAge)

	var recent, old []snowflake.ID
	for _, message := range messages {
		if message.ID.Time().After(cutoff) {
			recent = append(recent, message.ID)
		} else {
			old = append(old, message.ID)
		}
	}

	// Bulk delete needs at least two messages.
	if len(recent) == 1 {
		old = append(old, recent...)
		recent = nil
	}

	deleted := 0
	if len(recent) > 0 {
		if err := g.client.Rest().BulkDeleteMessages(channelID, recent, rest.WithCtx(ctx)); err != nil {
			return 0, fmt.Errorf("failed to bulk delete messages: %w", err)
		}
		deleted += len(recent)
	}

	for _, messageID := range old {
		if err := g.client.Rest().DeleteMessage(channelID, messageID, rest.WithCtx(ctx)); err != nil {
			return deleted, fmt.Errorf("failed to delete message %s: %w", messageID, err)
		}
		deleted++
	}

	g.logger.Debug("Cleared channel",
		zap.Uint64("channelID", uint64(channelID)),
		zap.Int("bulk", len(recent)),
		zap.Int("single", len(old)))

	return deleted, nil
}

func (g *guildREST) SetNickname(ctx context.Context, userID snowflake.ID, nickname string) error {
	_, err := g.client.Rest().UpdateMember(g.guildID, userID, discord.MemberUpdate{Nick: &nickname}, rest.WithCtx(ctx))
	return err
}

func (g *guildREST) AddRole(ctx context.Context, userID, roleID snowflake.ID) error {
	return g.client.Rest().AddMemberRole(g.guildID, userID, roleID, rest.WithCtx(ctx))
}

func (g *guildREST) Latency() time.Duration {
	if g.client.Gateway() == nil {
		return 0
	}
	return g.client.Gateway().Latency()
}

func (g *guildREST) ListEvents(ctx context.Context) ([]calendar.GuildEvent, error) {
	scheduled, err := g.client.Rest().GetGuildScheduledEvents(g.guildID, false, rest.WithCtx(ctx))
	if err != nil {
		return nil, err
	}

	events := make([]calendar.GuildEvent, 0, len(scheduled))
	for _, event := range scheduled {
		events = append(events, calendar.GuildEvent{
			ID:          event.ID,
			Name:        event.Name,
			Description: event.Description,
		})
	}
	return events, nil
}

func (g *guildREST) CreateEvent(ctx context.Context, event calendar.ScheduledEvent) error {
	end := event.End
	_, err := g.client.Rest().CreateGuildScheduledEvent(g.guildID, discord.GuildScheduledEventCreate{
		Name:               event.Name,
		Description:        event.Description,
		ScheduledStartTime: event.Start,
		ScheduledEndTime:   &end,
		PrivacyLevel:       discord.ScheduledEventPrivacyLevelGuildOnly,
		EntityType:         discord.ScheduledEventEntityTypeExternal,
		EntityMetaData:     &discord.EntityMetaData{Location: event.Location},
	}, rest.WithCtx(ctx))
	return err
}

func (g *guildREST) UpdateEvent(ctx context.Context, id snowflake.ID, event calendar.ScheduledEvent) error {
	start, end, description := event.Start, event.End, event.Description
	_, err := g.client.Rest().UpdateGuildScheduledEvent(g.guildID, id, discord.GuildScheduledEventUpdate{
		Name:               event.Name,
		Description:        &description,
		ScheduledStartTime: &start,
		ScheduledEndTime:   &end,
		EntityMetaData:     &discord.EntityMetaData{Location: event.Location},
	}, rest.WithCtx(ctx))
	return err
}

func (g *guildREST) DeleteEvent(ctx context.Context, id snowflake.ID) error {
	return g.client.Rest().DeleteGuildScheduledEvent(g.guildID, id, rest.WithCtx(ctx))
}

// alertSender posts alert embeds to the configured error channel.
type alertSender struct {
	guild    *guildREST
	settings handlers.Settings
}

func (s *alertSender) SendAlert(ctx context.Context, embed discord.Embed) error {
	settings, err := s.settings.GetGuildSettings(ctx)
	if err != nil {
		return err
	}

	if settings.ErrorChannelID == 0 {
		return ErrErrorChannelMissing
	}

	message := discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		SetAllowedMentions(&discord.AllowedMentions{}).
		Build()

	return s.guild.SendMessage(ctx, settings.ErrorChannelID, message)
}

var (
	_ handlers.Guild = (*guildREST)(nil)
	_ calendar.Guild = (*guildREST)(nil)
)
