package handlers

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"go.uber.org/zap"
)

var verifyCommand = discord.SlashCommandCreate{
	Name:                     constants.VerifyCommandName,
	Description:              "Insert verification button in verification channel",
	DefaultMemberPermissions: restrictedTo(discord.PermissionAdministrator),
}

// Verify replaces the verification channel's contents with the verification prompt.
func (h *Handlers) Verify(ctx context.Context, event interaction.Event) error {
	if !interaction.HasPermission(event, discord.PermissionAdministrator) {
		return interaction.Validation("You need the Administrator permission to do that.")
	}

	settings, err := h.guildSettings(ctx)
	if err != nil {
		return err
	}

	if settings.VerificationChannelID == 0 {
		return interaction.NotFound("Verification channel not found")
	}

	if err := event.Defer(true); err != nil {
		return err
	}

	cleared, err := h.guild.ClearChannel(ctx, settings.VerificationChannelID, constants.VerificationClearLimit)
	if err != nil {
		return interaction.External("Could not clear the verification channel.", err)
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Verification").
		SetDescription("Click the button below to verify").
		AddField("Instructions", "Click the button below and enter your first & last name", false).
		AddField("Additional", "You can also enter your pronouns, just make sure the total message is less than 32 characters", false).
		Build()

	message := discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		AddActionRow(discord.NewSuccessButton("Verify", constants.VerifyButtonCustomID)).
		Build()

	if err := h.guild.SendMessage(ctx, settings.VerificationChannelID, message); err != nil {
		return interaction.External("Could not post the verification message.", err)
	}

	h.logger.Info("Verification prompt posted",
		zap.Uint64("channelID", uint64(settings.VerificationChannelID)),
		zap.Int("cleared", cleared),
		zap.Uint64("userID", uint64(event.User().ID)))

	return event.EditReply(ctx, discord.NewMessageUpdateBuilder().SetContent("Verification button inserted").Build())
}

// VerifyButton asks the member for their name and pronouns, then sets their
// nickname and grants the verified role.
func (h *Handlers) VerifyButton(ctx context.Context, event interaction.Event) error {
	member := event.Member()
	if member == nil {
		return interaction.Validation("You are not in a guild")
	}

	modal := discord.NewModalCreateBuilder().
		SetCustomID(constants.VerifyModalCustomID).
		SetTitle("Verify").
		AddActionRow(
			discord.NewTextInput(constants.VerifyNameInputID, discord.TextInputStyleShort, "Name").
				WithRequired(true),
		).
		AddActionRow(
			discord.NewTextInput(constants.VerifyPronounsID, discord.TextInputStyleShort, "Pronouns (optional)").
				WithRequired(false),
		).
		Build()

	pending := h.modals.Expect(event.User().ID, constants.VerifyModalCustomID)
	if err := event.Modal(modal); err != nil {
		pending.Cancel()
		return err
	}

	submitted, err := pending.Wait(ctx, h.verifyTimeout)
	if err != nil {
		if errors.Is(err, interaction.ErrModalTimeout) {
			h.notify(ctx, event, "You took too long to verify. Press the button to try again.")
		}
		h.logger.Debug("Verification abandoned",
			zap.Uint64("userID", uint64(event.User().ID)),
			zap.Error(err))
		return nil
	}

	return interaction.ReplyVia(submitted, h.completeVerification(ctx, event, submitted))
}

func (h *Handlers) completeVerification(ctx context.Context, event, submitted interaction.Event) error {
	name := strings.TrimSpace(submitted.ModalText(constants.VerifyNameInputID))
	pronouns := strings.TrimSpace(submitted.ModalText(constants.VerifyPronounsID))

	if name == "" {
		return interaction.Validation("Please enter your name")
	}

	if utf8.RuneCountInString(name) > constants.MaxNicknameLength {
		return interaction.Validation("Name is too long")
	}

	settings, err := h.guildSettings(ctx)
	if err != nil {
		return err
	}

	if settings.VerifiedRoleID == 0 {
		return interaction.NotFound("Verified role not found")
	}

	userID := event.User().ID

	if err := h.guild.SetNickname(ctx, userID, name); err != nil {
		return interaction.External("Could not set your nickname.", err)
	}

	if err := h.guild.AddRole(ctx, userID, settings.VerifiedRoleID); err != nil {
		return interaction.External("Could not give you the verified role.", err)
	}

	if err := h.ledger.UpdateProfile(ctx, userID.String(), name, pronouns); err != nil {
		h.logger.Error("Failed to record verified profile",
			zap.Uint64("userID", uint64(userID)),
			zap.Error(err))
	}

	h.logger.Info("Member verified",
		zap.Uint64("userID", uint64(userID)),
		zap.String("name", name))

	return submitted.Reply(interaction.Ephemeral("Verified"))
}

// notify sends a best-effort ephemeral follow-up.
func (h *Handlers) notify(ctx context.Context, event interaction.Event, content string) {
	if err := event.FollowUp(ctx, interaction.Ephemeral(content)); err != nil {
		h.logger.Debug("Failed to send follow-up", zap.Error(err))
	}
}
