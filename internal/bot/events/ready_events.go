package events

import (
	"context"
	"time"

	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/peechi-bot/peechi/internal/bot/constants"
	"go.uber.org/zap"
)

// ReadyEventHandler announces the session and sets the bot's presence.
type ReadyEventHandler struct {
	logger *zap.Logger
}

// NewReadyEventHandler creates a ReadyEventHandler.
func NewReadyEventHandler(logger *zap.Logger) *ReadyEventHandler {
	return &ReadyEventHandler{
		logger: logger.Named("ready_events"),
	}
}

// OnReady logs the bot identity and guild count and sets the watching activity.
func (h *ReadyEventHandler) OnReady(event *events.Ready) {
	h.logger.Info("Ready",
		zap.String("username", event.User.Username),
		zap.String("userID", event.User.ID.String()),
		zap.Int("guilds", len(event.Guilds)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := event.Client().SetPresence(ctx, gateway.WithWatchingActivity(constants.WatchingActivity)); err != nil {
		h.logger.Warn("Failed to set presence", zap.Error(err))
	}
}
