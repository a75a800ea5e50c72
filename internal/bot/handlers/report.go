package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/peechi-bot/peechi/internal/bot/router"
	"github.com/peechi-bot/peechi/internal/bot/utils"
	"github.com/peechi-bot/peechi/internal/reports"
	"go.uber.org/zap"
)

var reportMenu = discord.MessageCommandCreate{
	Name: constants.ReportMenuName,
}

type reportCategory struct {
	name   string
	button func(label, customID string) discord.ButtonComponent
	color  int
}

var reportCategories = []reportCategory{
	{name: "Offensive", button: discord.NewDangerButton, color: constants.ReportOffensiveColor},
	{name: "Spam & Ads", button: discord.NewSecondaryButton, color: constants.ReportSpamColor},
	{name: "Illegal or NSFW", button: discord.NewDangerButton, color: constants.ReportIllegalColor},
	{name: "Uncomfortable", button: discord.NewPrimaryButton, color: constants.ReportUncomfortableColor},
	{name: constants.ReportCategoryOther, button: discord.NewSecondaryButton, color: constants.ReportOtherColor},
}

func findCategory(name string) (reportCategory, bool) {
	for _, category := range reportCategories {
		if category.name == name {
			return category, true
		}
	}
	return reportCategory{}, false
}

// ReportButtonID is the custom id of a category button.
func ReportButtonID(reportID, category string) string {
	return strings.Join([]string{constants.ReportButtonPrefix, reportID, category}, router.ButtonSeparator)
}

// ReportMessage opens a pending report on the target message and asks the
// reporter to pick a category.
func (h *Handlers) ReportMessage(_ context.Context, event interaction.Event) error {
	target, ok := event.TargetMessage()
	if !ok {
		return interaction.Validation("Reports can only be made on messages.")
	}

	message := snapshotMessage(target, event.GuildID())
	reportID := h.reports.Create(event, message)

	buttons := make([]discord.InteractiveComponent, 0, len(reportCategories))
	for _, category := range reportCategories {
		buttons = append(buttons, category.button(category.name, ReportButtonID(reportID, category.name)))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Report Message").
		SetDescription(fmt.Sprintf(
			"Please select the most appropriate category for your report below.\n\n**Report ID:** `%s`", reportID)).
		AddField("Message Link", fmt.Sprintf("[Click here to view the reported message](%s)", message.URL()), false).
		SetColor(constants.ReportPromptEmbedColor).
		SetFooterText("Your report will be reviewed by our moderation team").
		SetTimestamp(time.Now()).
		Build()

	reply := discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		AddActionRow(buttons...).
		SetEphemeral(true).
		Build()

	if err := event.Reply(reply); err != nil {
		h.reports.Delete(reportID)
		return err
	}

	h.logger.Debug("Report opened",
		zap.String("reportID", reportID),
		zap.Uint64("messageID", uint64(target.ID)))

	return nil
}

// ReportCategory resolves a pending report with the chosen category and
// forwards it to staff. The "Other" category first asks for details.
func (h *Handlers) ReportCategory(ctx context.Context, event interaction.Event) error {
	parts := strings.SplitN(event.CustomID(), router.ButtonSeparator, 3)
	if len(parts) != 3 {
		return interaction.Validation("Invalid report")
	}
	reportID, categoryName := parts[1], parts[2]

	report, ok := h.reports.Get(reportID)
	if !ok {
		return interaction.NotFound("Report not found")
	}

	category, ok := findCategory(categoryName)
	if !ok {
		return interaction.Validation("Invalid category")
	}

	// A concurrent click on another category may have consumed it.
	if !h.reports.Delete(reportID) {
		return interaction.NotFound("Report not found")
	}

	if err := report.Origin.ClearComponents(ctx); err != nil {
		h.logger.Warn("Failed to clear report buttons",
			zap.String("reportID", reportID),
			zap.Error(err))
	}

	responder := event
	var details string

	if category.name == constants.ReportCategoryOther {
		submitted, err := h.askReportDetails(ctx, event)
		if err != nil {
			if errors.Is(err, interaction.ErrModalTimeout) {
				h.notify(ctx, event, "You took too long to send your report.")
			}
			h.logger.Debug("Report details abandoned",
				zap.String("reportID", reportID),
				zap.Error(err))
			return nil
		}

		responder = submitted
		details = utils.TruncateString(
			strings.TrimSpace(submitted.ModalText(constants.ReportDetailsInputID)),
			constants.MaxReportDetailsLength)
	}

	h.notifyStaff(ctx, report, category, details)

	h.logger.Info("Report submitted",
		zap.String("reportID", reportID),
		zap.String("category", category.name))

	return responder.Reply(interaction.EphemeralEmbeds(reportConfirmationEmbed(reportID, category.name)))
}

func (h *Handlers) askReportDetails(ctx context.Context, event interaction.Event) (interaction.Event, error) {
	modal := discord.NewModalCreateBuilder().
		SetCustomID(constants.ReportModalCustomID).
		SetTitle("Additional Report Details").
		AddActionRow(
			discord.NewTextInput(constants.ReportDetailsInputID, discord.TextInputStyleParagraph, "Please provide additional details").
				WithPlaceholder("Explain why you are reporting this message...").
				WithRequired(true).
				WithMinLength(constants.MinReportDetailsLength).
				WithMaxLength(constants.MaxReportDetailsLength),
		).
		Build()

	pending := h.modals.Expect(event.User().ID, constants.ReportModalCustomID)
	if err := event.Modal(modal); err != nil {
		pending.Cancel()
		return nil, err
	}

	return pending.Wait(ctx, h.reportTimeout)
}

// notifyStaff posts the report to the staff channel. Failures are logged;
// the reporter is confirmed either way.
func (h *Handlers) notifyStaff(ctx context.Context, report *reports.Report, category reportCategory, details string) {
	settings, err := h.settings.GetGuildSettings(ctx)
	if err != nil {
		h.logger.Error("Failed to load settings for report",
			zap.String("reportID", report.ID),
			zap.Error(err))
		return
	}

	if settings.AdminChannelID == 0 {
		h.logger.Warn("Staff channel is not configured, report not forwarded",
			zap.String("reportID", report.ID))
		return
	}

	message := discord.NewMessageCreateBuilder().
		SetEmbeds(staffReportEmbed(report, category, details), reportedMessageEmbed(report.Message)).
		SetAllowedMentions(&discord.AllowedMentions{}).
		Build()

	if err := h.guild.SendMessage(ctx, settings.AdminChannelID, message); err != nil {
		h.logger.Error("Failed to forward report to staff",
			zap.String("reportID", report.ID),
			zap.Uint64("channelID", uint64(settings.AdminChannelID)),
			zap.Error(err))
	}
}

func staffReportEmbed(report *reports.Report, category reportCategory, details string) discord.Embed {
	message := report.Message

	embed := discord.NewEmbedBuilder().
		SetTitle("New Report Submitted").
		SetDescription(fmt.Sprintf("**Category:** %s\n**Report ID:** `%s`", category.name, report.ID)).
		AddField("Reported User", fmt.Sprintf("%s (<@%s>)", utils.EscapeMarkdown(message.AuthorName), message.AuthorID), true).
		AddField("Channel", fmt.Sprintf("<#%s>", message.ChannelID), true).
		AddField("Message Link", fmt.Sprintf("[View Message](%s)", message.URL()), true).
		SetColor(category.color).
		SetTimestamp(time.Now()).
		SetFooterText("Anonymous Report System")

	if details != "" {
		embed.AddField("Additional Details", details, false)
	}

	return embed.Build()
}

func reportedMessageEmbed(message reports.Message) discord.Embed {
	content := message.Content
	if content == "" {
		content = "*No text content*"
	}

	embed := discord.NewEmbedBuilder().
		SetAuthorName(fmt.Sprintf("%s (%s)", message.AuthorName, message.AuthorUsername)).
		SetDescription(content).
		SetColor(constants.ReportMessageEmbedColor)

	if message.AuthorAvatarURL != "" {
		embed.SetAuthorIcon(message.AuthorAvatarURL)
	}
	if !message.SentAt.IsZero() {
		embed.SetTimestamp(message.SentAt)
	}
	if message.Attachments > 0 {
		embed.AddField("Attachments", fmt.Sprintf("%d file(s) attached", message.Attachments), true)
	}

	return embed.Build()
}

func reportConfirmationEmbed(reportID, category string) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle("Report Submitted Successfully").
		SetDescription("Your anonymous report has been submitted to our moderation team for review.").
		AddField("Report ID", fmt.Sprintf("`%s`", reportID), true).
		AddField("Category", category, true).
		SetColor(constants.ReportConfirmEmbedColor).
		SetTimestamp(time.Now()).
		SetFooterText("Thank you for helping keep our community safe").
		Build()
}

// snapshotMessage copies the fields of a flagged message a report needs.
func snapshotMessage(target discord.Message, eventGuildID *snowflake.ID) reports.Message {
	var guildID snowflake.ID
	switch {
	case target.GuildID != nil:
		guildID = *target.GuildID
	case eventGuildID != nil:
		guildID = *eventGuildID
	}

	name := target.Author.EffectiveName()
	if target.Member != nil && target.Member.Nick != nil && *target.Member.Nick != "" {
		name = *target.Member.Nick
	}

	return reports.Message{
		ID:              target.ID,
		ChannelID:       target.ChannelID,
		GuildID:         guildID,
		AuthorID:        target.Author.ID,
		AuthorName:      name,
		AuthorUsername:  target.Author.Username,
		AuthorAvatarURL: target.Author.EffectiveAvatarURL(),
		Content:         target.Content,
		Attachments:     len(target.Attachments),
		SentAt:          target.CreatedAt,
	}
}
