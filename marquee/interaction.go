package marquee

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	// discordInteractionTokenLifespan defines the lifespan of a Discord
	// interaction token. Discord interaction tokens currently expire
	// after 15 minutes.
	discordInteractionTokenLifespan = 15 * time.Minute
)

// InteractionHandler defines the interface for responding to a single
// Discord interaction. It wraps the session calls a command needs, so
// command execution can be tested with a substitute handler.
type InteractionHandler interface {
	// Respond sends an initial response to a Discord interaction.
	Respond(ctx context.Context, i *discordgo.InteractionResponse) error

	// Edit modifies an existing interaction response.
	Edit(
		ctx context.Context,
		e *discordgo.WebhookEdit,
		opts ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// Delete removes an interaction response.
	Delete(ctx context.Context, opts ...discordgo.RequestOption)

	// GetInteraction returns the original InteractionCreate event.
	GetInteraction() *discordgo.InteractionCreate

	// Logger returns the logger associated with this handler.
	Logger() *slog.Logger
}

// GatewayHandler implements [InteractionHandler] for interactions
// received via the discord websocket gateway.
type GatewayHandler struct {
	session     DiscordSessionHandler
	interaction *discordgo.InteractionCreate
	logger      *slog.Logger
}

func (w GatewayHandler) Respond(
	ctx context.Context,
	response *discordgo.InteractionResponse,
) error {
	err := w.session.InteractionRespond(w.interaction.Interaction, response)
	if err != nil {
		w.logger.ErrorContext(ctx, "error responding to interaction", tint.Err(err))
	} else {
		w.logger.InfoContext(ctx, "responded to interaction")
	}
	return err
}

func (w GatewayHandler) Edit(
	ctx context.Context,
	wh *discordgo.WebhookEdit,
	opts ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	msg, err := w.session.InteractionResponseEdit(
		w.interaction.Interaction,
		wh,
		opts...,
	)
	if err != nil {
		w.logger.ErrorContext(ctx, "error editing interaction response", tint.Err(err))
	} else {
		w.logger.InfoContext(ctx, "edited interaction")
	}
	return msg, err
}

func (w GatewayHandler) Delete(ctx context.Context, opts ...discordgo.RequestOption) {
	err := w.session.InteractionResponseDelete(
		w.interaction.Interaction,
		opts...,
	)
	if err != nil {
		w.logger.ErrorContext(ctx, "error deleting interaction response", tint.Err(err))
	}
}

func (w GatewayHandler) GetInteraction() *discordgo.InteractionCreate {
	return w.interaction
}

func (w GatewayHandler) Logger() *slog.Logger {
	return w.logger
}

const (
	LookupStateReceived    LookupState = "received"
	LookupStateRejected    LookupState = "rejected"
	LookupStateSearching   LookupState = "searching"
	LookupStateNotFound    LookupState = "not_found"
	LookupStateFetching    LookupState = "fetching"
	LookupStateFetchFailed LookupState = "fetch_failed"
	LookupStateRendering   LookupState = "rendering"
	LookupStateCompleted   LookupState = "completed"
	LookupStateFailed      LookupState = "failed"
)

// LookupState is the current or final processing state of a single
// lookup invocation.
type LookupState string

func (s LookupState) String() string {
	return string(s)
}

// IsFinal returns true for states in which no further processing
// happens for the invocation.
func (s LookupState) IsFinal() bool {
	switch s {
	case LookupStateRejected:
		return true
	case LookupStateNotFound:
		return true
	case LookupStateFetchFailed:
		return true
	case LookupStateCompleted:
		return true
	case LookupStateFailed:
		return true
	default:
		return false
	}
}

// LookupCommand tracks one slash-command invocation through the
// search/fetch/render pipeline. It exists only for the duration of the
// invocation; nothing is retained afterward.
type LookupCommand struct {
	InteractionID string
	Command       string
	UserID        string
	Username      string
	Query         string
	State         LookupState
	StartedAt     time.Time
	TokenExpires  time.Time

	handler InteractionHandler
	logger  *slog.Logger
}

// newLookupCommand builds a command record from the interaction. The
// returned record starts in LookupStateReceived.
func newLookupCommand(
	i *discordgo.InteractionCreate,
	u *discordgo.User,
	handler InteractionHandler,
) *LookupCommand {
	now := time.Now().UTC()
	c := &LookupCommand{
		InteractionID: i.ID,
		Command:       i.ApplicationCommandData().Name,
		State:         LookupStateReceived,
		StartedAt:     now,
		TokenExpires:  now.Add(discordInteractionTokenLifespan),
		handler:       handler,
	}
	if u != nil {
		c.UserID = u.ID
		c.Username = u.Username
	}
	c.logger = handler.Logger().With(
		slog.Group(
			"lookup_command",
			"interaction_id", c.InteractionID,
			"command", c.Command,
			columnUserID, c.UserID,
		),
	)
	return c
}

// setState transitions the command, logging the transition.
func (c *LookupCommand) setState(ctx context.Context, state LookupState) {
	c.logger.InfoContext(
		ctx,
		"state change",
		"from", c.State.String(),
		"to", state.String(),
	)
	c.State = state
}

// reply edits the deferred interaction response with a plain text
// message, clearing any embed.
func (c *LookupCommand) reply(ctx context.Context, content string) {
	if _, err := c.handler.Edit(
		ctx,
		&discordgo.WebhookEdit{Content: &content},
	); err != nil {
		c.logger.ErrorContext(ctx, "error sending reply", tint.Err(err))
	}
}

// render edits the deferred interaction response with the display model.
func (c *LookupCommand) render(ctx context.Context, model DisplayModel) {
	c.setState(ctx, LookupStateRendering)
	if _, err := c.handler.Edit(ctx, model.webhookEdit()); err != nil {
		c.logger.ErrorContext(ctx, "error sending embed", tint.Err(err))
		c.setState(ctx, LookupStateFailed)
		return
	}
	c.setState(ctx, LookupStateCompleted)
}

var (
	columnUserID = "user_id"
)

func (c LookupCommand) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("interaction_id", c.InteractionID),
		slog.String("command", c.Command),
		slog.String(columnUserID, c.UserID),
		slog.String("username", c.Username),
		slog.String("query", c.Query),
		slog.String("state", c.State.String()),
	)
}
