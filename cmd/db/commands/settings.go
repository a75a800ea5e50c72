package commands

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// settingFlags names the flags of "settings set", one per guild setting.
var settingFlags = []string{"verified-role", "verification-channel", "admin-channel", "error-channel"}

// SettingsCommands returns the commands that manage the guild settings row.
func SettingsCommands(deps *CLIDependencies) []*cli.Command {
	flags := make([]cli.Flag, 0, len(settingFlags))
	for _, name := range settingFlags {
		flags = append(flags, &cli.UintFlag{Name: name, Usage: "Discord id for " + name})
	}

	return []*cli.Command{
		{
			Name:  "settings",
			Usage: "Inspect or change the guild's role and channel ids",
			Commands: []*cli.Command{
				{
					Name:   "show",
					Usage:  "Print the current settings",
					Action: handleSettingsShow(deps),
				},
				{
					Name:   "set",
					Usage:  "Update the given settings",
					Flags:  flags,
					Action: handleSettingsSet(deps),
				},
			},
		},
	}
}

func handleSettingsShow(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		settings, err := deps.DB.Model().Setting().GetGuildSettings(ctx)
		if err != nil {
			return err
		}

		deps.Logger.Info("Guild settings",
			zap.Uint64("verifiedRoleID", uint64(settings.VerifiedRoleID)),
			zap.Uint64("verificationChannelID", uint64(settings.VerificationChannelID)),
			zap.Uint64("adminChannelID", uint64(settings.AdminChannelID)),
			zap.Uint64("errorChannelID", uint64(settings.ErrorChannelID)),
			zap.Time("updatedAt", settings.UpdatedAt),
		)

		return nil
	}
}

func handleSettingsSet(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		model := deps.DB.Model().Setting()

		current, err := model.GetGuildSettings(ctx)
		if err != nil {
			return err
		}
		settings := *current

		targets := map[string]*snowflake.ID{
			"verified-role":        &settings.VerifiedRoleID,
			"verification-channel": &settings.VerificationChannelID,
			"admin-channel":        &settings.AdminChannelID,
			"error-channel":        &settings.ErrorChannelID,
		}

		changed := 0
		for _, name := range settingFlags {
			if c.IsSet(name) {
				*targets[name] = snowflake.ID(c.Uint(name))
				changed++
			}
		}

		if changed == 0 {
			return ErrNothingToUpdate
		}

		if err := model.SaveGuildSettings(ctx, &settings); err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}

		deps.Logger.Info("Updated guild settings", zap.Int("changed", changed))

		return nil
	}
}
