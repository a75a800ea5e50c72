// Package interactiontest provides an in-memory interaction.Event for tests.
package interactiontest

import (
	"context"
	"errors"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
)

// ErrAlreadyResponded mirrors Discord rejecting a second initial response.
var ErrAlreadyResponded = errors.New("interaction has already been responded to")

// DefaultUserID is the invoking user of events built by the constructors.
const DefaultUserID snowflake.ID = 1001

// Event records every response made to it.
type Event struct {
	KindValue     interaction.Kind
	NameValue     string
	CustomIDValue string
	UserValue     discord.User
	MemberValue   *discord.ResolvedMember
	GuildIDValue  *snowflake.ID
	ChannelValue  snowflake.ID
	Slash         *discord.SlashCommandInteractionData
	Target        *discord.Message
	Texts         map[string]string

	// ModalErr fails Modal when set.
	ModalErr error

	mu        sync.Mutex
	responded bool
	deferred  bool
	replies   []discord.MessageCreate
	modals    []discord.ModalCreate
	updates   []discord.MessageUpdate
	edits     []discord.MessageUpdate
	followUps []discord.MessageCreate
}

func newEvent(kind interaction.Kind) *Event {
	guildID := snowflake.ID(77)
	return &Event{
		KindValue:    kind,
		UserValue:    discord.User{ID: DefaultUserID, Username: "tester"},
		GuildIDValue: &guildID,
		ChannelValue: 88,
	}
}

// NewCommand builds a slash command invocation.
func NewCommand(name string) *Event {
	e := newEvent(interaction.KindCommand)
	e.NameValue = name
	return e
}

// NewContextMenu builds a message context menu invocation on target.
func NewContextMenu(name string, target discord.Message) *Event {
	e := newEvent(interaction.KindContextMenu)
	e.NameValue = name
	e.Target = &target
	return e
}

// NewButton builds a button click.
func NewButton(customID string) *Event {
	e := newEvent(interaction.KindButton)
	e.CustomIDValue = customID
	return e
}

// NewModal builds a modal submission with the given text inputs.
func NewModal(customID string, texts map[string]string) *Event {
	e := newEvent(interaction.KindModal)
	e.CustomIDValue = customID
	e.Texts = texts
	return e
}

// WithPermissions gives the invoking member permissions.
func (e *Event) WithPermissions(permissions discord.Permissions) *Event {
	e.MemberValue = &discord.ResolvedMember{
		Member:      discord.Member{User: e.UserValue},
		Permissions: permissions,
	}
	return e
}

func (e *Event) Kind() interaction.Kind { return e.KindValue }
func (e *Event) Name() string { return e.NameValue }
func (e *Event) CustomID() string { return e.CustomIDValue }
func (e *Event) User() discord.User { return e.UserValue }
func (e *Event) Member() *discord.ResolvedMember { return e.MemberValue }
func (e *Event) GuildID() *snowflake.ID { return e.GuildIDValue }
func (e *Event) ChannelID() snowflake.ID { return e.ChannelValue }

func (e *Event) Responded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.responded
}

func (e *Event) respond() error {
	if e.responded {
		return ErrAlreadyResponded
	}
	e.responded = true
	return nil
}

func (e *Event) Reply(message discord.MessageCreate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.respond(); err != nil {
		return err
	}
	e.replies = append(e.replies, message)
	return nil
}

func (e *Event) Defer(bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.respond(); err != nil {
		return err
	}
	e.deferred = true
	return nil
}

func (e *Event) Modal(modal discord.ModalCreate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ModalErr != nil {
		return e.ModalErr
	}
	if err := e.respond(); err != nil {
		return err
	}
	e.modals = append(e.modals, modal)
	return nil
}

func (e *Event) UpdateMessage(message discord.MessageUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.respond(); err != nil {
		return err
	}
	e.updates = append(e.updates, message)
	return nil
}

func (e *Event) EditReply(_ context.Context, message discord.MessageUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edits = append(e.edits, message)
	return nil
}

func (e *Event) FollowUp(_ context.Context, message discord.MessageCreate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.followUps = append(e.followUps, message)
	return nil
}

// ClearComponents records a component clear as an edit.
func (e *Event) ClearComponents(ctx context.Context) error {
	return e.EditReply(ctx, discord.NewMessageUpdateBuilder().ClearContainerComponents().Build())
}

func (e *Event) SlashCommand() (discord.SlashCommandInteractionData, bool) {
	if e.Slash == nil {
		return discord.SlashCommandInteractionData{}, false
	}
	return *e.Slash, true
}

func (e *Event) TargetMessage() (discord.Message, bool) {
	if e.Target == nil {
		return discord.Message{}, false
	}
	return *e.Target, true
}

func (e *Event) ModalText(customID string) string {
	return e.Texts[customID]
}

// Deferred reports whether Defer was called.
func (e *Event) Deferred() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deferred
}

// Replies returns the initial replies.
func (e *Event) Replies() []discord.MessageCreate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]discord.MessageCreate(nil), e.replies...)
}

// Modals returns the modals shown.
func (e *Event) Modals() []discord.ModalCreate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]discord.ModalCreate(nil), e.modals...)
}

// Updates returns the component message updates.
func (e *Event) Updates() []discord.MessageUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]discord.MessageUpdate(nil), e.updates...)
}

// Edits returns the edits of the initial response.
func (e *Event) Edits() []discord.MessageUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]discord.MessageUpdate(nil), e.edits...)
}

// FollowUps returns the follow-up messages.
func (e *Event) FollowUps() []discord.MessageCreate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]discord.MessageCreate(nil), e.followUps...)
}

// LastContent returns the content of the most recent reply or follow-up.
func (e *Event) LastContent() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n := len(e.followUps); n > 0 {
		return e.followUps[n-1].Content
	}
	if n := len(e.replies); n > 0 {
		return e.replies[n-1].Content
	}
	return ""
}

var _ interaction.Event = (*Event)(nil)
