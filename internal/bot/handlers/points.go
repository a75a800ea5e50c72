package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/peechi-bot/peechi/internal/bot/utils"
	"github.com/peechi-bot/peechi/internal/database/types"
)

var (
	minLeaderboardLimit = 1
	maxLeaderboardLimit = constants.MaxLeaderboardLimit
)

var pointsCommand = discord.SlashCommandCreate{
	Name:        constants.PointsCommandName,
	Description: "Check your points or view the leaderboard",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        constants.PointsCheckSubcommand,
			Description: "Check your current points",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        constants.PointsLeaderboardSubcommand,
			Description: "View the points leaderboard",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        constants.PointsLimitOption,
					Description: "Number of top users to show (default: 10, max: 25)",
					MinValue:    &minLeaderboardLimit,
					MaxValue:    &maxLeaderboardLimit,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        constants.PointsUserSubcommand,
			Description: "Check another user's points",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        constants.PointsTargetOption,
					Description: "The user to check points for",
					Required:    true,
				},
			},
		},
	},
}

var leaderboardMedals = []string{"🥇", "🥈", "🥉"}

// Points answers the check, user and leaderboard subcommands.
func (h *Handlers) Points(ctx context.Context, event interaction.Event) error {
	data, ok := event.SlashCommand()
	if !ok || data.SubCommandName == nil {
		return interaction.Validation("Unknown subcommand.")
	}

	switch *data.SubCommandName {
	case constants.PointsCheckSubcommand:
		return h.pointsCheck(ctx, event)
	case constants.PointsUserSubcommand:
		return h.pointsUser(ctx, event, data)
	case constants.PointsLeaderboardSubcommand:
		return h.pointsLeaderboard(ctx, event, data)
	default:
		return interaction.Validation("Unknown subcommand.")
	}
}

func (h *Handlers) pointsCheck(ctx context.Context, event interaction.Event) error {
	user := event.User()
	record, found := h.ledger.GetUser(ctx, user.ID.String())

	embed := pointsEmbed("Your Points", user, record)
	if !found {
		embed.SetDescription("You haven't earned any points yet! Start chatting to earn points.")
	}

	return event.Reply(discord.NewMessageCreateBuilder().SetEmbeds(embed.Build()).Build())
}

func (h *Handlers) pointsUser(ctx context.Context, event interaction.Event, data discord.SlashCommandInteractionData) error {
	target, ok := data.OptUser(constants.PointsTargetOption)
	if !ok {
		return interaction.Validation("Invalid user specified.")
	}

	if target.Bot {
		return interaction.Validation("Bots don't earn points!")
	}

	record, found := h.ledger.GetUser(ctx, target.ID.String())

	embed := pointsEmbed(target.EffectiveName()+"'s Points", target, record)
	if !found {
		embed.SetDescription("This user hasn't earned any points yet!")
	}

	return event.Reply(discord.NewMessageCreateBuilder().SetEmbeds(embed.Build()).Build())
}

func (h *Handlers) pointsLeaderboard(ctx context.Context, event interaction.Event, data discord.SlashCommandInteractionData) error {
	requested, ok := data.OptInt(constants.PointsLimitOption)
	if !ok {
		requested = constants.DefaultLeaderboardLimit
	}
	limit := min(max(requested, minLeaderboardLimit), maxLeaderboardLimit)

	users := h.ledger.GetLeaderboard(ctx, limit)

	embed := discord.NewEmbedBuilder().
		SetColor(constants.LeaderboardEmbedColor).
		SetTitle("🏆 Points Leaderboard").
		SetTimestamp(time.Now())

	if len(users) == 0 {
		embed.SetDescription("No users have earned points yet!")
	} else {
		embed.SetDescription(formatLeaderboard(users))
		if limit != requested {
			embed.SetFooterText(fmt.Sprintf("Showing top %d users", limit))
		}
	}

	return event.Reply(discord.NewMessageCreateBuilder().SetEmbeds(embed.Build()).Build())
}

func pointsEmbed(title string, user discord.User, record *types.User) *discord.EmbedBuilder {
	var points int64
	if record != nil {
		points = record.Points
	}

	return discord.NewEmbedBuilder().
		SetColor(constants.PointsEmbedColor).
		SetTitle(title).
		SetThumbnail(user.EffectiveAvatarURL()).
		AddField("Points", utils.FormatNumber(points), true).
		AddField("User", utils.EscapeMarkdown(user.EffectiveName()), true).
		SetTimestamp(time.Now())
}

func formatLeaderboard(users []*types.User) string {
	lines := make([]string, 0, len(users))
	for i, user := range users {
		rank := strconv.Itoa(i+1) + "."
		if i < len(leaderboardMedals) {
			rank = leaderboardMedals[i]
		}
		lines = append(lines, fmt.Sprintf("%s **%s** - %s points",
			rank, utils.EscapeMarkdown(user.Name), utils.FormatNumber(user.Points)))
	}
	return strings.Join(lines, "\n")
}
