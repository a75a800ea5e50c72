package alert_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/setup/telemetry/alert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type recordingSender struct {
	mu     sync.Mutex
	embeds []discord.Embed
	err    error
}

func (s *recordingSender) SendAlert(_ context.Context, embed discord.Embed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeds = append(s.embeds, embed)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeds)
}

func TestCoreForwardsOnlyEnabledLevels(t *testing.T) {
	t.Parallel()
	queue := alert.NewQueue(10)
	logger := zap.New(alert.NewCore(zapcore.ErrorLevel, queue))

	logger.Warn("ignored")
	logger.Named("ledger").With(zap.String("userID", "1")).Error("write failed", zap.Int("delta", 3))

	sender := &recordingSender{}
	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)
	go alert.NewNotifier(queue, sender, zap.NewNop()).Run(ctx)

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 10*time.Millisecond)

	embed := sender.embeds[0]
	assert.Equal(t, "Error", embed.Title)
	assert.Equal(t, "write failed", embed.Description)

	names := make([]string, 0, len(embed.Fields))
	for _, field := range embed.Fields {
		names = append(names, field.Name)
	}
	assert.Equal(t, []string{"Logger", "delta", "userID"}, names)
}

func TestQueueDropsWhenFull(t *testing.T) {
	t.Parallel()
	queue := alert.NewQueue(2)

	assert.True(t, queue.Push(alert.Entry{Message: "a"}))
	assert.True(t, queue.Push(alert.Entry{Message: "b"}))
	assert.False(t, queue.Push(alert.Entry{Message: "c"}))
	assert.Equal(t, int64(1), queue.Dropped())
}

func TestNotifierSurvivesSendFailure(t *testing.T) {
	t.Parallel()
	queue := alert.NewQueue(4)
	sender := &recordingSender{err: errors.New("channel missing")}

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)
	go alert.NewNotifier(queue, sender, zap.NewNop()).Run(ctx)

	queue.Push(alert.Entry{Message: "first"})
	queue.Push(alert.Entry{Message: "second"})

	assert.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestBuildEmbed(t *testing.T) {
	t.Parallel()

	embed := alert.BuildEmbed(alert.Entry{
		Level:    zapcore.ErrorLevel,
		Message:  strings.Repeat("x", 5000),
		Critical: true,
		Stack:    "goroutine 1",
		Fields:   map[string]any{"context": map[string]any{"command": "/fail"}},
	})

	assert.Equal(t, "Critical Error", embed.Title)
	assert.Len(t, []rune(embed.Description), 4000)
	require.Len(t, embed.Fields, 2)
	assert.JSONEq(t, `{"command":"/fail"}`, embed.Fields[0].Value)
	assert.Contains(t, embed.Fields[1].Value, "goroutine 1")
}

func TestMinLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, zapcore.ErrorLevel, alert.MinLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, alert.MinLevel("bogus"))
	assert.Equal(t, zapcore.DPanicLevel, alert.MinLevel("dpanic"))
}

func TestCriticalField(t *testing.T) {
	t.Parallel()
	queue := alert.NewQueue(1)
	logger := zap.New(alert.NewCore(zapcore.ErrorLevel, queue))
	logger.Error("boom", alert.Critical())

	sender := &recordingSender{}
	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)
	go alert.NewNotifier(queue, sender, zap.NewNop()).Run(ctx)

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Critical Error", sender.embeds[0].Title)
	assert.Empty(t, sender.embeds[0].Fields)
}
