package marquee

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

type stubEdits struct {
	WebhookEdit *discordgo.WebhookEdit
	Opts        []discordgo.RequestOption
}

// stubInteractionHandler implements InteractionHandler, recording calls
// on channels so tests can assert on what a command sent to Discord.
type stubInteractionHandler struct {
	interaction *discordgo.InteractionCreate

	callRespond chan *discordgo.InteractionResponse
	callEdit    chan *stubEdits
	callDelete  chan struct{}

	logger *slog.Logger
}

func newStubInteractionHandler(
	t testing.TB,
	i *discordgo.InteractionCreate,
) *stubInteractionHandler {
	t.Helper()
	return &stubInteractionHandler{
		interaction: i,
		callRespond: make(chan *discordgo.InteractionResponse, 100),
		callEdit:    make(chan *stubEdits, 100),
		callDelete:  make(chan struct{}, 100),
		logger:      slog.Default().With("test_name", t.Name()),
	}
}

func (s *stubInteractionHandler) Respond(
	_ context.Context,
	i *discordgo.InteractionResponse,
) error {
	s.callRespond <- i
	return nil
}

func (s *stubInteractionHandler) Edit(
	_ context.Context,
	e *discordgo.WebhookEdit,
	opts ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	s.callEdit <- &stubEdits{WebhookEdit: e, Opts: opts}
	return nil, nil
}

func (s *stubInteractionHandler) Delete(
	_ context.Context,
	_ ...discordgo.RequestOption,
) {
	s.callDelete <- struct{}{}
}

func (s *stubInteractionHandler) GetInteraction() *discordgo.InteractionCreate {
	return s.interaction
}

func (s *stubInteractionHandler) Logger() *slog.Logger {
	return s.logger
}

// lastEdit drains the handler's edit channel and returns the most
// recent edit, failing the test if no edit was made.
func (s *stubInteractionHandler) lastEdit(t testing.TB) *stubEdits {
	t.Helper()
	var last *stubEdits
	for {
		select {
		case e := <-s.callEdit:
			last = e
		default:
			require.NotNil(t, last, "expected at least one interaction edit")
			return last
		}
	}
}

func testLogHandler(t testing.TB) slog.Handler {
	t.Helper()
	return slog.Default().Handler().WithAttrs(
		[]slog.Attr{slog.String("test_name", t.Name())},
	)
}

func newTestUser() *discordgo.User {
	return &discordgo.User{
		ID:       "user-id-123",
		Username: "testuser",
	}
}

func newTestInteraction(
	commandName string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:   "interaction-id-123",
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    commandName,
				Options: options,
			},
			User: newTestUser(),
		},
	}
}

func integerOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func booleanOption(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

func stringOption(name string, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func subcommandOption(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: options,
	}
}

// rewriteTransport redirects every request to the given base URL,
// preserving the request path, so commands built on absolute upstream
// URLs can be pointed at a local test server.
type rewriteTransport struct {
	base *url.URL
}

func (rt rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r.URL.Scheme = rt.base.Scheme
	r.URL.Host = rt.base.Host
	return http.DefaultTransport.RoundTrip(r)
}

func newTestConfig(t testing.TB) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Discord.Token = "test-token"
	cfg.Discord.ApplicationID = "test-application-id"
	cfg.TMDB.APIKey = "test-api-key"
	return cfg
}

// newTestMarquee creates a bot whose upstream requests are rewritten to
// the given server URL. An empty serverURL leaves the default client in
// place, for tests that must not make any HTTP calls.
func newTestMarquee(t testing.TB, serverURL string) *Marquee {
	t.Helper()
	cfg := newTestConfig(t)
	if serverURL != "" {
		base, err := url.Parse(serverURL)
		require.NoError(t, err)
		cfg.HTTPClient = &http.Client{Transport: rewriteTransport{base: base}}
	}
	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

func newTestLookupCommand(
	t testing.TB,
	i *discordgo.InteractionCreate,
) (*LookupCommand, *stubInteractionHandler) {
	t.Helper()
	handler := newStubInteractionHandler(t, i)
	return newLookupCommand(i, newTestUser(), handler), handler
}
