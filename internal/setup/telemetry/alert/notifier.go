package alert

import (
	"context"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/discord"
	"go.uber.org/zap"
)

const (
	colorError    = 0xE74C3C
	colorCritical = 0x992D22

	maxDescription = 4000
	maxFieldValue  = 1000
	maxFields      = 20
)

// Sender posts an alert embed to the staff error channel.
type Sender interface {
	SendAlert(ctx context.Context, embed discord.Embed) error
}

// Notifier drains a Queue into a Sender.
type Notifier struct {
	queue  *Queue
	sender Sender
	logger *zap.Logger
}

// NewNotifier creates a Notifier. logger must not be teed into queue at a level
// the notifier itself logs at; delivery failures are logged as warnings.
func NewNotifier(queue *Queue, sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{
		queue:  queue,
		sender: sender,
		logger: logger.Named("alert_notifier"),
	}
}

// Run delivers entries until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-n.queue.entries:
			if err := n.sender.SendAlert(ctx, BuildEmbed(entry)); err != nil {
				n.logger.Warn("Failed to deliver alert",
					zap.String("message", entry.Message),
					zap.Error(err))
			}
		}
	}
}

// BuildEmbed renders an entry for the error channel.
func BuildEmbed(entry Entry) discord.Embed {
	title := "Error"
	color := colorError

	if entry.Critical {
		title = "Critical Error"
		color = colorCritical
	}

	builder := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(truncate(entry.Message, maxDescription)).
		SetColor(color).
		SetTimestamp(entry.Time).
		SetFooter(entry.Level.CapitalString(), "")

	if entry.Logger != "" {
		builder.AddField("Logger", entry.Logger, true)
	}
	if entry.Caller != "" {
		builder.AddField("Caller", entry.Caller, true)
	}

	keys := make([]string, 0, len(entry.Fields))
	for key := range entry.Fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for i, key := range keys {
		if i == maxFields {
			builder.AddField("…", fmt.Sprintf("%d more fields", len(keys)-maxFields), false)
			break
		}
		builder.AddField(key, truncate(formatValue(entry.Fields[key]), maxFieldValue), false)
	}

	if entry.Stack != "" {
		builder.AddField("Stack", "```\n"+truncate(entry.Stack, maxFieldValue-8)+"\n```", false)
	}

	return builder.Build()
}

func formatValue(value any) string {
	if s, ok := value.(string); ok {
		if s == "" {
			return "(empty)"
		}
		return s
	}

	out, err := sonic.MarshalString(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return out
}

// truncate shortens s to at most limit runes, marking the cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
