// Package events handles the non-interaction gateway events the bot consumes.
package events

import (
	"context"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/peechi-bot/peechi/internal/ledger"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// maxConcurrentScoring bounds in-flight message scoring.
const maxConcurrentScoring = 16

// Scorer credits chat activity.
type Scorer interface {
	ProcessMessage(ctx context.Context, userID, name, content, channelID string) ledger.Result
}

// MessageEventHandler scores guild messages for points.
type MessageEventHandler struct {
	ctx    context.Context
	scorer Scorer
	pool   *pool.Pool
	logger *zap.Logger
}

// NewMessageEventHandler creates a handler scoring messages until ctx ends.
func NewMessageEventHandler(ctx context.Context, scorer Scorer, logger *zap.Logger) *MessageEventHandler {
	return &MessageEventHandler{
		ctx:    ctx,
		scorer: scorer,
		pool:   pool.New().WithMaxGoroutines(maxConcurrentScoring),
		logger: logger.Named("message_events"),
	}
}

// OnGuildMessageCreate queues a new guild message for scoring.
func (h *MessageEventHandler) OnGuildMessageCreate(event *events.GuildMessageCreate) {
	message := event.Message
	if !Scorable(message) {
		return
	}

	h.pool.Go(func() {
		h.HandleMessage(h.ctx, message)
	})
}

// HandleMessage scores a message and logs the outcome.
func (h *MessageEventHandler) HandleMessage(ctx context.Context, message discord.Message) {
	if ctx.Err() != nil {
		return
	}

	result := h.scorer.ProcessMessage(ctx,
		message.Author.ID.String(),
		message.Author.EffectiveName(),
		message.Content,
		message.ChannelID.String())

	if result.PointsAwarded > 0 {
		h.logger.Info("Awarded points",
			zap.String("username", message.Author.Username),
			zap.Int("points", result.PointsAwarded),
			zap.String("reason", result.Reason))
		return
	}

	h.logger.Debug("No points awarded",
		zap.String("username", message.Author.Username),
		zap.String("reason", result.Reason))
}

// Wait blocks until every queued message has been scored.
func (h *MessageEventHandler) Wait() {
	h.pool.Wait()
}

// Scorable reports whether a message is eligible for points. Bot, webhook
// and system messages and messages without text are skipped.
func Scorable(message discord.Message) bool {
	if message.Author.Bot || message.Author.System || message.WebhookID != nil {
		return false
	}

	if message.Type != discord.MessageTypeDefault && message.Type != discord.MessageTypeReply {
		return false
	}

	return strings.TrimSpace(message.Content) != ""
}
