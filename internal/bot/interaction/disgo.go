package interaction

import (
	"context"
	"sync/atomic"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// responder is what every disgo interaction event offers.
type responder interface {
	ApplicationID() snowflake.ID
	Token() string
	User() discord.User
	Member() *discord.ResolvedMember
	GuildID() *snowflake.ID
	ChannelID() snowflake.ID
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
	DeferCreateMessage(ephemeral bool, opts ...rest.RequestOpt) error
}

// base implements the shared parts of Event on top of a disgo event.
type base struct {
	responder
	rest      rest.Rest
	responded atomic.Bool
}

func (b *base) Responded() bool {
	return b.responded.Load()
}

func (b *base) Reply(message discord.MessageCreate) error {
	if err := b.CreateMessage(message); err != nil {
		return err
	}
	b.responded.Store(true)
	return nil
}

func (b *base) Defer(ephemeral bool) error {
	if err := b.DeferCreateMessage(ephemeral); err != nil {
		return err
	}
	b.responded.Store(true)
	return nil
}

func (b *base) EditReply(ctx context.Context, message discord.MessageUpdate) error {
	_, err := b.rest.UpdateInteractionResponse(b.ApplicationID(), b.Token(), message, rest.WithCtx(ctx))
	return err
}

func (b *base) FollowUp(ctx context.Context, message discord.MessageCreate) error {
	_, err := b.rest.CreateFollowupMessage(b.ApplicationID(), b.Token(), message, rest.WithCtx(ctx))
	return err
}

// ClearComponents removes the buttons from the initial response.
func (b *base) ClearComponents(ctx context.Context) error {
	return b.EditReply(ctx, discord.NewMessageUpdateBuilder().ClearContainerComponents().Build())
}

func (b *base) CustomID() string {
	return ""
}

func (b *base) Name() string {
	return ""
}

func (b *base) SlashCommand() (discord.SlashCommandInteractionData, bool) {
	return discord.SlashCommandInteractionData{}, false
}

func (b *base) TargetMessage() (discord.Message, bool) {
	return discord.Message{}, false
}

func (b *base) ModalText(string) string {
	return ""
}

func (b *base) Modal(discord.ModalCreate) error {
	return ErrUnsupportedResponse
}

func (b *base) UpdateMessage(discord.MessageUpdate) error {
	return ErrUnsupportedResponse
}

// CommandEvent adapts slash commands and context menus.
type CommandEvent struct {
	base

	event *events.ApplicationCommandInteractionCreate
}

// NewCommandEvent wraps a disgo application command event.
func NewCommandEvent(event *events.ApplicationCommandInteractionCreate) *CommandEvent {
	return &CommandEvent{
		base:  base{responder: event, rest: event.Client().Rest()},
		event: event,
	}
}

func (e *CommandEvent) Kind() Kind {
	if e.event.Data.Type() == discord.ApplicationCommandTypeSlash {
		return KindCommand
	}
	return KindContextMenu
}

func (e *CommandEvent) Name() string {
	return e.event.Data.CommandName()
}

func (e *CommandEvent) Modal(modal discord.ModalCreate) error {
	if err := e.event.Modal(modal); err != nil {
		return err
	}
	e.responded.Store(true)
	return nil
}

func (e *CommandEvent) SlashCommand() (discord.SlashCommandInteractionData, bool) {
	data, ok := e.event.Data.(discord.SlashCommandInteractionData)
	return data, ok
}

func (e *CommandEvent) TargetMessage() (discord.Message, bool) {
	data, ok := e.event.Data.(discord.MessageCommandInteractionData)
	if !ok {
		return discord.Message{}, false
	}
	return data.TargetMessage(), true
}

// ComponentEvent adapts button clicks.
type ComponentEvent struct {
	base

	event *events.ComponentInteractionCreate
}

// NewComponentEvent wraps a disgo component event.
func NewComponentEvent(event *events.ComponentInteractionCreate) *ComponentEvent {
	return &ComponentEvent{
		base:  base{responder: event, rest: event.Client().Rest()},
		event: event,
	}
}

func (e *ComponentEvent) Kind() Kind {
	return KindButton
}

func (e *ComponentEvent) CustomID() string {
	return e.event.Data.CustomID()
}

func (e *ComponentEvent) Modal(modal discord.ModalCreate) error {
	if err := e.event.Modal(modal); err != nil {
		return err
	}
	e.responded.Store(true)
	return nil
}

func (e *ComponentEvent) UpdateMessage(message discord.MessageUpdate) error {
	if err := e.event.UpdateMessage(message); err != nil {
		return err
	}
	e.responded.Store(true)
	return nil
}

// ModalEvent adapts modal submissions.
type ModalEvent struct {
	base

	event *events.ModalSubmitInteractionCreate
}

// NewModalEvent wraps a disgo modal submit event.
func NewModalEvent(event *events.ModalSubmitInteractionCreate) *ModalEvent {
	return &ModalEvent{
		base:  base{responder: event, rest: event.Client().Rest()},
		event: event,
	}
}

func (e *ModalEvent) Kind() Kind {
	return KindModal
}

func (e *ModalEvent) CustomID() string {
	return e.event.Data.CustomID
}

func (e *ModalEvent) ModalText(customID string) string {
	return e.event.Data.Text(customID)
}
