// Package interaction abstracts the Discord interactions the router dispatches.
package interaction

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// Kind classifies an interaction.
type Kind int

const (
	KindCommand Kind = iota
	KindContextMenu
	KindButton
	KindModal
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindContextMenu:
		return "context menu"
	case KindButton:
		return "button"
	case KindModal:
		return "modal"
	default:
		return "unknown"
	}
}

// Event is a single interaction. Exactly one initial response (Reply, Defer,
// Modal or UpdateMessage) may be sent; after that only EditReply and FollowUp apply.
type Event interface {
	Kind() Kind

	// Name is the command or context menu name. Empty for components and modals.
	Name() string
	// CustomID is the component or modal id. Empty for commands.
	CustomID() string

	User() discord.User
	// Member is nil outside of guilds.
	Member() *discord.ResolvedMember
	GuildID() *snowflake.ID
	ChannelID() snowflake.ID

	// Responded reports whether an initial response was sent.
	Responded() bool

	Reply(message discord.MessageCreate) error
	Defer(ephemeral bool) error
	Modal(modal discord.ModalCreate) error
	// UpdateMessage edits the message a component is attached to as the initial response.
	UpdateMessage(message discord.MessageUpdate) error

	EditReply(ctx context.Context, message discord.MessageUpdate) error
	FollowUp(ctx context.Context, message discord.MessageCreate) error
	// ClearComponents removes the components from the initial response.
	ClearComponents(ctx context.Context) error

	// SlashCommand returns the options of a slash command.
	SlashCommand() (discord.SlashCommandInteractionData, bool)
	// TargetMessage returns the message a message context menu was used on.
	TargetMessage() (discord.Message, bool)
	// ModalText returns a submitted text input value.
	ModalText(customID string) string
}

// HasPermission reports whether the invoking member holds permission.
func HasPermission(event Event, permission discord.Permissions) bool {
	member := event.Member()
	return member != nil && member.Permissions.Has(permission)
}

// Ephemeral builds a plain ephemeral reply.
func Ephemeral(content string) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build()
}

// EphemeralEmbeds builds an ephemeral reply carrying embeds.
func EphemeralEmbeds(embeds ...discord.Embed) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetEmbeds(embeds...).
		SetEphemeral(true).
		Build()
}
