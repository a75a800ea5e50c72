package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
)

var pingCommand = discord.SlashCommandCreate{
	Name:        constants.PingCommandName,
	Description: "Replies with Pong!",
}

// Ping replies and then reports the reply round trip and gateway latency.
func (h *Handlers) Ping(ctx context.Context, event interaction.Event) error {
	start := time.Now()
	if err := event.Reply(discord.NewMessageCreateBuilder().SetContent("Pong!").Build()); err != nil {
		return err
	}
	latency := time.Since(start)

	content := fmt.Sprintf("Pong!\nLatency: %dms\nAPI Latency: %dms",
		latency.Milliseconds(), h.guild.Latency().Milliseconds())

	return event.EditReply(ctx, discord.NewMessageUpdateBuilder().SetContent(content).Build())
}
