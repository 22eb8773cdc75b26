package marquee

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
)

var (
	// Version is the bot's release version, set at build time
	Version = "dev"

	// CommitSHA is the git commit the binary was built from
	CommitSHA = ""

	// BuildTime is the timestamp of the build
	BuildTime = ""

	defaultLogWriter io.Writer = os.Stdout

	structValidator = validator.New()
)

//nolint:gochecknoinits // gotta use the `binding` tag
func init() {
	structValidator.SetTagName("binding")
}

// Marquee is the top-level bot. It owns the gateway session, the
// upstream API client and the command dispatch loop.
//
// Create an instance with [New], then call [Marquee.Run] to connect to
// the gateway and begin handling interactions.
type Marquee struct {
	config *Config

	logger     *slog.Logger
	logHandler slog.Handler

	discord *Discord
	api     *apiClient

	// signalStop enables an explicit stop signal to be sent to the bot,
	// terminating it gracefully
	signalStop chan struct{}

	// signalReady receives a signal when the bot has finished starting up
	signalReady chan struct{}

	// runMu prevents concurrent Run calls
	runMu sync.Mutex

	startedAt time.Time

	// getInteractionHandlerFunc returns the handler used for incoming
	// interactions, substituted in tests
	getInteractionHandlerFunc func(
		ctx context.Context,
		i *discordgo.InteractionCreate,
	) InteractionHandler
}

// New creates a new Marquee instance from the given config. After
// calling New, call [Marquee.Run] to start the bot's main loop.
func New(config *Config) (*Marquee, error) {
	m := &Marquee{
		config:      config,
		signalReady: make(chan struct{}, 1),
	}

	m.logHandler = tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     m.config.LogLevel,
			AddSource: true,
		},
	)

	m.logger = slog.New(m.logHandler)
	slog.SetDefault(m.logger)

	m.config.Discord.httpClient = m.config.HTTPClient

	disc := newDiscord(m.config.Discord)

	discordgo.Logger = discordgoLoggerFunc(
		context.Background(),
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     m.config.Discord.DiscordGoLogLevel,
				AddSource: true,
			},
		).WithAttrs([]slog.Attr{slog.String(loggerNameKey, "discordgo")}),
	)

	disc.logger = slog.New(
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     m.config.Discord.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "discord")

	m.discord = disc
	disc.bot = m

	m.api = newAPIClient(
		m.config.HTTP,
		m.config.HTTPClient,
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     m.config.HTTP.LogLevel,
				AddSource: true,
			},
		),
	)

	return m, nil
}

func (m *Marquee) ValidateConfig() error {
	return structValidator.Struct(m.config)
}

// RegisterSlashCommands registers the bot's slash commands with Discord
// via the bulk overwrite endpoint. This is a REST call and doesn't
// require an open gateway connection.
func (m *Marquee) RegisterSlashCommands(options ...discordgo.RequestOption) (
	[]*discordgo.ApplicationCommand,
	error,
) {
	if m.discord.session == nil {
		session, err := m.discord.newSession()
		if err != nil {
			return nil, err
		}
		m.discord.session = session
	}
	return m.discord.registerCommands(options...)
}

// Run validates the config, connects to the discord gateway, registers
// the bot's slash commands, and blocks until the given context is
// canceled or [Marquee.Stop] is called.
func (m *Marquee) Run(ctx context.Context) error {
	// prevents concurrent runs
	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.signalStop = make(chan struct{}, 1)
	m.startedAt = time.Now()
	logger := m.logger

	if err := m.ValidateConfig(); err != nil {
		logger.Error("invalid config", tint.Err(err))
		return err
	}

	ctx = WithLogger(ctx, logger)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting", slog.Any("config", m.config))

	if m.signalReady == nil {
		m.signalReady = make(chan struct{}, 1)
	}

	// this is the 'runtime' context, which triggers a graceful shutdown
	// when canceled
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-m.signalStop:
			m.logger.Warn("got stop signal, canceling")
			cancel()
		case <-ctx.Done():
			m.logger.Warn("context canceled, sending stop signal")
			m.signalStop <- struct{}{}
			return
		}
	}()

	runtimeWG := &sync.WaitGroup{}

	startCtx, startCancel := context.WithTimeout(ctx, m.config.StartupTimeout)
	defer startCancel()

	initErr := make(chan error, 1)
	go func() {
		logger.Debug("initializing run...")
		initErr <- m.initRun(ctx, runtimeWG)
	}()

	select {
	case <-startCtx.Done():
		return fmt.Errorf("startup cancelled or timed out")
	case err := <-initErr:
		if err != nil {
			logger.ErrorContext(ctx, "init error", tint.Err(err))
			return err
		}
	}

	m.signalReady <- struct{}{}
	m.logger.InfoContext(ctx, "sent ready signal")

	// block until something cancels the main runtime context - generally
	// from an interrupt
	<-ctx.Done()

	return m.shutdown(runtimeWG)
}

// Stop signals the bot to shut down gracefully.
func (m *Marquee) Stop() {
	if m.signalStop != nil {
		m.signalStop <- struct{}{}
	}
}

// initRun creates the gateway session, opens the websocket connection
// and registers the bot's slash commands.
func (m *Marquee) initRun(
	ctx context.Context,
	runtimeWG *sync.WaitGroup,
) error {
	if err := m.initDiscordSession(ctx, runtimeWG); err != nil {
		m.logger.ErrorContext(ctx, "error creating discord session", tint.Err(err))
		return err
	}

	m.logger.InfoContext(ctx, "connecting to discord")
	if err := m.discord.session.Open(); err != nil {
		m.logger.ErrorContext(ctx, "error connecting to discord!", tint.Err(err))
		return err
	}

	if _, err := m.RegisterSlashCommands(); err != nil {
		m.logger.ErrorContext(ctx, "error registering slash commands", tint.Err(err))
		return err
	}

	return nil
}

// initDiscordSession creates the gateway session, if one doesn't already
// exist, and registers the bot's gateway event handlers.
func (m *Marquee) initDiscordSession(
	ctx context.Context,
	runtimeWG *sync.WaitGroup,
) error {
	logger := m.logger.With(loggerNameKey, "discord_session")

	if m.discord.session == nil {
		disc, discErr := m.discord.newSession()
		if discErr != nil {
			return fmt.Errorf("error creating discord session: %w", discErr)
		}
		m.discord.session = disc
	}

	ctx = WithLogger(ctx, logger)

	if len(m.discord.discordgoRemoveHandlerFuncs) > 0 {
		for _, h := range m.discord.discordgoRemoveHandlerFuncs {
			h()
		}
	}

	m.discord.discordgoRemoveHandlerFuncs = []func(){
		m.discord.session.AddHandler(m.discord.handlerConnect()),
		m.discord.session.AddHandler(m.discord.handlerDisconnect()),
		m.discord.session.AddHandler(m.discord.handlerReady()),
		m.discord.session.AddHandler(
			func(
				_ *discordgo.Session,
				i *discordgo.InteractionCreate,
			) {
				handler := m.getInteractionHandlerFunc(ctx, i)
				runtimeWG.Add(1)
				go func() {
					defer runtimeWG.Done()
					m.handleInteraction(ctx, handler)
				}()
			},
		),
	}

	if m.getInteractionHandlerFunc == nil {
		m.getInteractionHandlerFunc = func(
			_ context.Context,
			i *discordgo.InteractionCreate,
		) InteractionHandler {
			return GatewayHandler{
				session:     m.discord.session,
				interaction: i,
				logger: m.discord.logger.With(
					slog.Group(
						"interaction",
						interactionLogAttrs(*i)...,
					),
				),
			}
		}
	}

	return nil
}

// shutdown closes the gateway session and waits for in-flight
// interaction handlers to finish, up to the configured shutdown timeout.
func (m *Marquee) shutdown(runtimeWG *sync.WaitGroup) error {
	m.logger.Info("shutting down")

	if m.discord.session != nil {
		if err := m.discord.session.Close(); err != nil {
			m.logger.Error("error closing discord session", tint.Err(err))
		}
	}

	done := make(chan struct{}, 1)
	go func() {
		runtimeWG.Wait()
		done <- struct{}{}
	}()

	select {
	case <-done:
		m.logger.Info("shutdown complete")
		return nil
	case <-time.After(m.config.ShutdownTimeout):
		m.logger.Warn("shutdown timed out with handlers still in flight")
		return fmt.Errorf("shutdown timed out after %s", m.config.ShutdownTimeout)
	}
}

// handleInteraction responds to incoming interaction events. Lookup
// commands are acknowledged with a deferred response, run against the
// upstream API, then finalized by editing the deferred response.
func (m *Marquee) handleInteraction(
	ctx context.Context,
	handler InteractionHandler,
) {
	i := handler.GetInteraction()
	logger := handler.Logger()

	discordUser := getDiscordUser(i)
	if discordUser == nil {
		logger.ErrorContext(
			ctx,
			"no user found in interaction",
			"interaction", structToSlogValue(i),
		)
		return
	}

	logger = logger.With(slog.Group("interaction", interactionLogAttrs(*i)...))
	ctx = WithLogger(ctx, logger)
	logger.InfoContext(ctx, "received new interaction", "user", structToSlogValue(discordUser))

	if discordUser.Bot {
		logger.WarnContext(ctx, "user is bot, ignoring", "user", discordUser)
		return
	}

	switch i.Type {
	case discordgo.InteractionPing:
		_ = handler.Respond(
			ctx, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponsePong,
			},
		)
	case discordgo.InteractionApplicationCommand:
		m.handleApplicationCommand(ctx, handler, discordUser)
	default:
		logger.WarnContext(
			ctx,
			"unexpected interaction type",
			"interaction_type", i.Type.String(),
		)
	}
}

// handleApplicationCommand acknowledges a slash-command interaction with
// a deferred response, then routes it to the command's implementation.
func (m *Marquee) handleApplicationCommand(
	ctx context.Context,
	handler InteractionHandler,
	u *discordgo.User,
) {
	i := handler.GetInteraction()
	logger := handler.Logger()
	commandName := i.ApplicationCommandData().Name

	if ackErr := handler.Respond(ctx, m.discord.ackResponse()); ackErr != nil {
		logger.ErrorContext(ctx, "error acknowledging interaction", tint.Err(ackErr))
		return
	}

	c := newLookupCommand(i, u, handler)

	switch commandName {
	case DiscordSlashCommandXKCD:
		opts := discordInteractionOptions(i)
		var number int
		var hasNumber bool
		var random bool
		if opt, ok := opts[xkcdCommandNumberOption]; ok {
			number = int(opt.IntValue())
			hasNumber = true
		}
		if opt, ok := opts[xkcdCommandRandomOption]; ok {
			random = opt.BoolValue()
		}
		m.runXKCDCommand(ctx, c, number, hasNumber, random)
	case DiscordSlashCommandTMDB:
		sub, opts := subcommandOptions(i)
		var query string
		var year int
		if opt, ok := opts[tmdbCommandNameOption]; ok {
			query = opt.StringValue()
		}
		if opt, ok := opts[tmdbCommandYearOption]; ok {
			year = int(opt.IntValue())
		}
		m.runTMDBCommand(ctx, c, sub, query, year)
	case DiscordSlashCommandHello:
		m.runHelloCommand(ctx, c, u)
	case DiscordSlashCommandSource:
		m.runSourceCommand(ctx, c)
	default:
		// a command we never registered; there's nothing meaningful to
		// say, so remove the deferred response instead of replying
		logger.WarnContext(ctx, "unknown command", "command", commandName)
		c.setState(ctx, LookupStateFailed)
		handler.Delete(ctx)
	}
}
