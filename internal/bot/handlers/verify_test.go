package handlers_test

import (
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/peechi-bot/peechi/internal/bot/interaction/interactiontest"
	"github.com/peechi-bot/peechi/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCommand(t *testing.T) {
	t.Parallel()

	t.Run("requires administrator", func(t *testing.T) {
		t.Parallel()
		env := setupEnv(t)

		event := interactiontest.NewCommand("verify").WithPermissions(discord.PermissionSendMessages)
		env.router.Dispatch(t.Context(), event)

		assert.Equal(t, "You need the Administrator permission to do that.", event.LastContent())
		assert.Empty(t, env.guild.cleared)
	})

	t.Run("channel not configured", func(t *testing.T) {
		t.Parallel()
		env := setupEnv(t)
		env.settings.settings.VerificationChannelID = 0

		event := interactiontest.NewCommand("verify").WithPermissions(discord.PermissionAdministrator)
		env.router.Dispatch(t.Context(), event)

		assert.Equal(t, "Verification channel not found", event.LastContent())
	})

	t.Run("posts prompt", func(t *testing.T) {
		t.Parallel()
		env := setupEnv(t)

		event := interactiontest.NewCommand("verify").WithPermissions(discord.PermissionAdministrator)
		env.router.Dispatch(t.Context(), event)

		assert.True(t, event.Deferred())
		assert.Equal(t, []snowflake.ID{verificationChannelID}, env.guild.cleared)

		sent := env.guild.sentTo(verificationChannelID)
		require.Len(t, sent, 1)
		require.Len(t, sent[0].Embeds, 1)
		assert.Equal(t, "Verification", sent[0].Embeds[0].Title)
		require.Len(t, sent[0].Components, 1)

		edits := event.Edits()
		require.Len(t, edits, 1)
		require.NotNil(t, edits[0].Content)
		assert.Equal(t, "Verification button inserted", *edits[0].Content)
	})
}

func TestVerifyButton(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		texts        map[string]string
		settings     func(*types.GuildSetting)
		wantReply    string
		wantNickname string
	}{
		{
			name:         "verifies member",
			texts:        map[string]string{"name": "Ada Lovelace", "pronouns": "she/her"},
			wantReply:    "Verified",
			wantNickname: "Ada Lovelace",
		},
		{
			name:      "name too long",
			texts:     map[string]string{"name": strings.Repeat("a", 33)},
			wantReply: "Name is too long",
		},
		{
			name:      "role not configured",
			texts:     map[string]string{"name": "Ada"},
			settings:  func(s *types.GuildSetting) { s.VerifiedRoleID = 0 },
			wantReply: "Verified role not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupEnv(t)
			if tt.settings != nil {
				tt.settings(&env.settings.settings)
			}

			button := interactiontest.NewButton("verify").WithPermissions(0)
			env.router.Go(t.Context(), button)

			modal := waitForModal(t, button)
			assert.Equal(t, "verify", modal.CustomID)

			submission := interactiontest.NewModal("verify", tt.texts)
			env.router.Dispatch(t.Context(), submission)
			env.router.Wait()

			assert.Equal(t, tt.wantReply, submission.LastContent())
			assert.Empty(t, button.FollowUps())

			env.guild.mu.Lock()
			nickname, renamed := env.guild.nicknames[interactiontest.DefaultUserID]
			roles := env.guild.roles[interactiontest.DefaultUserID]
			env.guild.mu.Unlock()

			if tt.wantNickname == "" {
				assert.False(t, renamed)
				assert.Empty(t, roles)
				return
			}

			assert.Equal(t, tt.wantNickname, nickname)
			assert.Equal(t, []snowflake.ID{verifiedRoleID}, roles)

			env.ledger.mu.Lock()
			profile := env.ledger.profiles[interactiontest.DefaultUserID.String()]
			env.ledger.mu.Unlock()
			assert.Equal(t, [2]string{"Ada Lovelace", "she/her"}, profile)
		})
	}
}

func TestVerifyButtonOutsideGuild(t *testing.T) {
	t.Parallel()
	env := setupEnv(t)

	button := interactiontest.NewButton("verify")
	env.router.Dispatch(t.Context(), button)

	assert.Equal(t, "You are not in a guild", button.LastContent())
	assert.Empty(t, button.Modals())
}

func TestVerifyButtonTimesOut(t *testing.T) {
	t.Parallel()
	env := setupEnv(t, withModalTimeout(20*time.Millisecond))

	button := interactiontest.NewButton("verify").WithPermissions(0)
	env.router.Go(t.Context(), button)

	waitForModal(t, button)
	env.router.Wait()

	followUps := button.FollowUps()
	require.Len(t, followUps, 1)
	assert.Equal(t, "You took too long to verify. Press the button to try again.", followUps[0].Content)
	assert.True(t, followUps[0].Flags.Has(discord.MessageFlagEphemeral))

	env.guild.mu.Lock()
	assert.Empty(t, env.guild.nicknames)
	assert.Empty(t, env.guild.roles)
	env.guild.mu.Unlock()

	env.ledger.mu.Lock()
	assert.Empty(t, env.ledger.profiles)
	env.ledger.mu.Unlock()

	assert.Zero(t, env.modals.Len())
}
