// Package router dispatches interactions to registered handlers and turns
// handler failures into a single ephemeral reply.
package router

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/peechi-bot/peechi/internal/bot/interaction"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ButtonSeparator splits a button custom id into its routing prefix and arguments.
const ButtonSeparator = "/"

// Handler handles one interaction. Returned errors are reported to the user by the Router.
type Handler func(ctx context.Context, event interaction.Event) error

// Command is a slash command.
type Command struct {
	Create discord.SlashCommandCreate
	Handle Handler
}

// ContextMenu is a message context menu command.
type ContextMenu struct {
	Create discord.MessageCommandCreate
	Handle Handler
}

// Button handles every button whose custom id starts with Prefix.
type Button struct {
	Prefix string
	Handle Handler
}

// ModalDeliverer receives modal submissions that handlers are waiting on.
type ModalDeliverer interface {
	Deliver(event interaction.Event) bool
}

// Router holds the handler tables. Registration happens before Start;
// the tables are read-only afterwards.
type Router struct {
	commands     map[string]Command
	contextMenus map[string]ContextMenu
	buttons      map[string]Button
	modals       ModalDeliverer
	tracer       trace.Tracer
	logger       *zap.Logger
	wg           conc.WaitGroup
}

// New creates an empty Router.
func New(modals ModalDeliverer, logger *zap.Logger) *Router {
	return &Router{
		commands:     make(map[string]Command),
		contextMenus: make(map[string]ContextMenu),
		buttons:      make(map[string]Button),
		modals:       modals,
		tracer:       otel.Tracer("github.com/peechi-bot/peechi/internal/bot/router"),
		logger:       logger.Named("router"),
	}
}

// AddCommand registers a slash command. A later registration under the same
// name replaces the earlier one.
func (r *Router) AddCommand(command Command) {
	if _, exists := r.commands[command.Create.Name]; exists {
		r.logger.Warn("Replacing duplicate command handler", zap.String("name", command.Create.Name))
	}
	r.commands[command.Create.Name] = command
}

// AddContextMenu registers a context menu command.
func (r *Router) AddContextMenu(menu ContextMenu) {
	if _, exists := r.contextMenus[menu.Create.Name]; exists {
		r.logger.Warn("Replacing duplicate context menu handler", zap.String("name", menu.Create.Name))
	}
	r.contextMenus[menu.Create.Name] = menu
}

// AddButton registers a button prefix.
func (r *Router) AddButton(button Button) {
	if _, exists := r.buttons[button.Prefix]; exists {
		r.logger.Warn("Replacing duplicate button handler", zap.String("prefix", button.Prefix))
	}
	r.buttons[button.Prefix] = button
}

// Catalogue returns every command and context menu for publishing, sorted by name.
func (r *Router) Catalogue() []discord.ApplicationCommandCreate {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	menus := make([]string, 0, len(r.contextMenus))
	for name := range r.contextMenus {
		menus = append(menus, name)
	}
	slices.Sort(menus)

	catalogue := make([]discord.ApplicationCommandCreate, 0, len(names)+len(menus))
	for _, name := range names {
		catalogue = append(catalogue, r.commands[name].Create)
	}
	for _, name := range menus {
		catalogue = append(catalogue, r.contextMenus[name].Create)
	}

	return catalogue
}

// Go dispatches the event on its own goroutine so handlers may wait on
// follow-up input without blocking the gateway.
func (r *Router) Go(ctx context.Context, event interaction.Event) {
	r.wg.Go(func() {
		r.Dispatch(ctx, event)
	})
}

// Wait blocks until every dispatched event has finished.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Dispatch routes the event and runs its handler.
func (r *Router) Dispatch(ctx context.Context, event interaction.Event) {
	if event.Kind() == interaction.KindModal {
		if !r.modals.Deliver(event) {
			r.logger.Warn("Dropping modal submission nobody is waiting for",
				zap.String("customID", event.CustomID()),
				zap.Uint64("userID", uint64(event.User().ID)))
		}
		return
	}

	handler, key, ok := r.lookup(event)
	if !ok {
		r.logger.Warn("No handler registered",
			zap.String("kind", event.Kind().String()),
			zap.String("key", key),
			zap.Uint64("userID", uint64(event.User().ID)))
		return
	}

	ctx, span := r.tracer.Start(ctx, "interaction "+key, trace.WithAttributes(
		attribute.String("interaction.kind", event.Kind().String()),
		attribute.String("interaction.key", key),
		attribute.String("discord.user_id", event.User().ID.String()),
	))
	defer span.End()

	start := time.Now()

	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = handler(ctx, event)
	})

	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		r.fail(ctx, event, key, err)
		return
	}

	r.logger.Debug("Interaction handled",
		zap.String("kind", event.Kind().String()),
		zap.String("key", key),
		zap.Uint64("userID", uint64(event.User().ID)),
		zap.Duration("duration", time.Since(start)))
}

// lookup resolves the handler and its routing key.
func (r *Router) lookup(event interaction.Event) (Handler, string, bool) {
	switch event.Kind() {
	case interaction.KindCommand:
		command, ok := r.commands[event.Name()]
		return command.Handle, event.Name(), ok
	case interaction.KindContextMenu:
		menu, ok := r.contextMenus[event.Name()]
		return menu.Handle, event.Name(), ok
	case interaction.KindButton:
		prefix, _, _ := strings.Cut(event.CustomID(), ButtonSeparator)
		button, ok := r.buttons[prefix]
		return button.Handle, prefix, ok
	default:
		return nil, "", false
	}
}

// fail logs err and sends the single error response.
func (r *Router) fail(ctx context.Context, event interaction.Event, key string, err error) {
	var redirect *interaction.RedirectError
	if errors.As(err, &redirect) && redirect.Event != nil {
		event = redirect.Event
	}

	fields := []zap.Field{
		zap.String("kind", event.Kind().String()),
		zap.String("key", key),
		zap.String("customID", event.CustomID()),
		zap.Uint64("userID", uint64(event.User().ID)),
		zap.String("username", event.User().Username),
		zap.Uint64("channelID", uint64(event.ChannelID())),
		zap.Error(err),
	}
	if guildID := event.GuildID(); guildID != nil {
		fields = append(fields, zap.Uint64("guildID", uint64(*guildID)))
	}

	message := GenericMessage(event.Kind())

	var userErr *interaction.UserError
	switch {
	case errors.As(err, &userErr) && userErr.Expected():
		message = userErr.Message
		r.logger.Debug("Interaction rejected", fields...)
	case errors.As(err, &userErr):
		message = userErr.Message
		r.logger.Error("Interaction failed", fields...)
	default:
		r.logger.Error("Interaction handler error", fields...)
	}

	reply := interaction.Ephemeral(message)

	var sendErr error
	if event.Responded() {
		sendErr = event.FollowUp(ctx, reply)
	} else {
		sendErr = event.Reply(reply)
	}

	if sendErr != nil {
		r.logger.Warn("Failed to send error response",
			zap.String("key", key),
			zap.Error(sendErr))
	}
}

// GenericMessage is the reply for unexpected failures of each kind.
func GenericMessage(kind interaction.Kind) string {
	switch kind {
	case interaction.KindContextMenu:
		return "There was an error while executing this context menu!"
	case interaction.KindButton:
		return "There was an error while executing this button!"
	default:
		return "There was an error while executing this command!"
	}
}
