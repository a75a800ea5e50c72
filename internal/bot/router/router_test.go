package router_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/peechi-bot/peechi/internal/bot/interaction/interactiontest"
	"github.com/peechi-bot/peechi/internal/bot/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) (*router.Router, *interaction.ModalWaiter) {
	t.Helper()
	waiter := interaction.NewModalWaiter()
	return router.New(waiter, zap.NewNop()), waiter
}

func command(name string, handle router.Handler) router.Command {
	return router.Command{
		Create: discord.SlashCommandCreate{Name: name, Description: name},
		Handle: handle,
	}
}

func TestDispatchCommand(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	r.AddCommand(command("ping", func(_ context.Context, event interaction.Event) error {
		return event.Reply(interaction.Ephemeral("Pong!"))
	}))

	event := interactiontest.NewCommand("ping")
	r.Dispatch(t.Context(), event)

	assert.Equal(t, "Pong!", event.LastContent())
	assert.Empty(t, event.FollowUps())
}

func TestDispatchButtonByPrefix(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	var got atomic.Value
	r.AddButton(router.Button{Prefix: "report", Handle: func(_ context.Context, event interaction.Event) error {
		got.Store(event.CustomID())
		return nil
	}})

	r.Dispatch(t.Context(), interactiontest.NewButton("report/abc/Spam & Ads"))
	assert.Equal(t, "report/abc/Spam & Ads", got.Load())
}

func TestDispatchUnknownIsDropped(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	events := []*interactiontest.Event{
		interactiontest.NewCommand("missing"),
		interactiontest.NewContextMenu("Missing", discord.Message{}),
		interactiontest.NewButton("nothing/1"),
		interactiontest.NewModal("stray", nil),
	}

	for _, event := range events {
		r.Dispatch(t.Context(), event)
		assert.False(t, event.Responded())
		assert.Empty(t, event.FollowUps())
	}
}

func TestDispatchErrorBecomesReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event *interactiontest.Event
		err   error
		want  string
	}{
		{
			name:  "command failure",
			event: interactiontest.NewCommand("boom"),
			err:   errors.New("database exploded"),
			want:  "There was an error while executing this command!",
		},
		{
			name:  "context menu failure",
			event: interactiontest.NewContextMenu("boom", discord.Message{}),
			err:   errors.New("nope"),
			want:  "There was an error while executing this context menu!",
		},
		{
			name:  "button failure",
			event: interactiontest.NewButton("boom/1"),
			err:   errors.New("nope"),
			want:  "There was an error while executing this button!",
		},
		{
			name:  "validation message",
			event: interactiontest.NewButton("boom/2"),
			err:   interaction.Validation("Invalid category"),
			want:  "Invalid category",
		},
		{
			name:  "persistence message",
			event: interactiontest.NewCommand("boom"),
			err:   interaction.Persistence(errors.New("timeout")),
			want:  interaction.MessagePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _ := setupRouter(t)
			handle := func(context.Context, interaction.Event) error { return tt.err }

			r.AddCommand(command("boom", handle))
			r.AddContextMenu(router.ContextMenu{Create: discord.MessageCommandCreate{Name: "boom"}, Handle: handle})
			r.AddButton(router.Button{Prefix: "boom", Handle: handle})

			r.Dispatch(t.Context(), tt.event)

			replies := tt.event.Replies()
			require.Len(t, replies, 1)
			assert.Equal(t, tt.want, replies[0].Content)
			assert.True(t, replies[0].Flags.Has(discord.MessageFlagEphemeral))
			assert.Empty(t, tt.event.FollowUps())
		})
	}
}

func TestDispatchErrorAfterResponseFollowsUp(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	r.AddCommand(command("slow", func(_ context.Context, event interaction.Event) error {
		if err := event.Defer(true); err != nil {
			return err
		}
		return errors.New("failed after defer")
	}))

	event := interactiontest.NewCommand("slow")
	r.Dispatch(t.Context(), event)

	assert.Empty(t, event.Replies())
	followUps := event.FollowUps()
	require.Len(t, followUps, 1)
	assert.Equal(t, "There was an error while executing this command!", followUps[0].Content)
}

func TestDispatchErrorRedirectedToSubmission(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	submission := interactiontest.NewModal("verify", map[string]string{"name": "x"})
	r.AddButton(router.Button{Prefix: "verify", Handle: func(_ context.Context, event interaction.Event) error {
		if err := event.Modal(discord.ModalCreate{CustomID: "verify"}); err != nil {
			return err
		}
		return interaction.ReplyVia(submission, interaction.Validation("Name is too long"))
	}})

	button := interactiontest.NewButton("verify")
	r.Dispatch(t.Context(), button)

	assert.Empty(t, button.FollowUps())
	assert.Equal(t, "Name is too long", submission.LastContent())
}

func TestDispatchRecoversPanic(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	r.AddCommand(command("panic", func(context.Context, interaction.Event) error {
		panic("handler bug")
	}))

	event := interactiontest.NewCommand("panic")
	require.NotPanics(t, func() { r.Dispatch(t.Context(), event) })
	assert.Equal(t, "There was an error while executing this command!", event.LastContent())
}

func TestDuplicateRegistrationLastWins(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	r.AddCommand(command("ping", func(_ context.Context, event interaction.Event) error {
		return event.Reply(interaction.Ephemeral("first"))
	}))
	r.AddCommand(command("ping", func(_ context.Context, event interaction.Event) error {
		return event.Reply(interaction.Ephemeral("second"))
	}))

	event := interactiontest.NewCommand("ping")
	r.Dispatch(t.Context(), event)
	assert.Equal(t, "second", event.LastContent())
	assert.Len(t, r.Catalogue(), 1)
}

func TestModalSubmissionDelivered(t *testing.T) {
	t.Parallel()
	r, waiter := setupRouter(t)

	pending := waiter.Expect(interactiontest.DefaultUserID, "verify")
	r.Dispatch(t.Context(), interactiontest.NewModal("verify", map[string]string{"name": "Ada"}))

	submission, err := pending.Wait(t.Context(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Ada", submission.ModalText("name"))
}

func TestGoAndWait(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)

	var calls atomic.Int32
	r.AddCommand(command("count", func(context.Context, interaction.Event) error {
		calls.Add(1)
		return nil
	}))

	for range 10 {
		r.Go(t.Context(), interactiontest.NewCommand("count"))
	}
	r.Wait()

	assert.Equal(t, int32(10), calls.Load())
}

func TestCatalogueOrder(t *testing.T) {
	t.Parallel()
	r, _ := setupRouter(t)
	noop := func(context.Context, interaction.Event) error { return nil }

	r.AddCommand(command("points", noop))
	r.AddCommand(command("ping", noop))
	r.AddContextMenu(router.ContextMenu{Create: discord.MessageCommandCreate{Name: "Report Message"}, Handle: noop})

	catalogue := r.Catalogue()
	require.Len(t, catalogue, 3)
	assert.Equal(t, "ping", catalogue[0].CommandName())
	assert.Equal(t, "points", catalogue[1].CommandName())
	assert.Equal(t, "Report Message", catalogue[2].CommandName())
}
