package marquee

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomComicNumber(t *testing.T) {
	const latest = 1000
	seen := make(map[int]bool)
	for i := 0; i < 10000; i++ {
		n := randomComicNumber(latest)
		require.GreaterOrEqual(t, n, 1)
		require.Less(t, n, latest)
		require.NotEqual(t, withdrawnComicNumber, n)
		seen[n] = true
	}
	// with 10k samples over 998 candidates, the spread should be wide
	assert.Greater(t, len(seen), 900)
}

func TestRandomComicNumberSmallRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, randomComicNumber(2))
	}
}

func TestComicDisplayModel(t *testing.T) {
	comic := Comic{
		Num:   614,
		Title: "Woodpecker",
		Alt:   "If you don't have an extension cord I can get that for you.",
		Img:   "https://imgs.xkcd.com/comics/woodpecker.png",
	}
	model := comicDisplayModel(comic)

	assert.Equal(t, "Woodpecker", model.Title)
	assert.Equal(t, "https://xkcd.com/614/", model.URL)
	assert.Equal(
		t,
		"If you don't have an extension cord I can get that for you.",
		model.Description,
	)
	assert.Equal(t, "https://imgs.xkcd.com/comics/woodpecker.png", model.Image)
	assert.Equal(t, xkcdEmbedColor, model.Color)
	assert.Equal(t, "xkcd comic no. 614", model.Footer)

	require.Len(t, model.Links, 2)
	assert.Equal(t, "View on xkcd", model.Links[0].Label)
	assert.Equal(t, "https://xkcd.com/614/", model.Links[0].URL)
	assert.Equal(t, "View wiki", model.Links[1].Label)
	assert.Equal(t, "https://explainxkcd.com/wiki/index.php/614", model.Links[1].URL)
}

// Supplying both options is rejected before any upstream request.
func TestRunXKCDCommandConflictingOptions(t *testing.T) {
	m := newTestMarquee(t, "")
	i := newTestInteraction(
		DiscordSlashCommandXKCD,
		integerOption(xkcdCommandNumberOption, 614),
		booleanOption(xkcdCommandRandomOption, true),
	)
	c, handler := newTestLookupCommand(t, i)

	m.runXKCDCommand(context.Background(), c, 614, true, true)

	assert.Equal(t, LookupStateRejected, c.State)
	assert.Equal(t, int64(0), m.api.RequestCount())

	edit := handler.lastEdit(t)
	require.NotNil(t, edit.WebhookEdit.Content)
	assert.Equal(
		t,
		"You cannot provide both a number and the random flag. Please use one or the other!",
		*edit.WebhookEdit.Content,
	)
	assert.Nil(t, edit.WebhookEdit.Embeds)
}

func TestRunXKCDCommandSpecificComic(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/614/info.0.json", r.URL.Path)
				_ = json.NewEncoder(w).Encode(
					Comic{
						Num:   614,
						Title: "Woodpecker",
						Alt:   "An alt text.",
						Img:   "https://imgs.xkcd.com/comics/woodpecker.png",
					},
				)
			},
		),
	)
	t.Cleanup(server.Close)

	m := newTestMarquee(t, server.URL)
	i := newTestInteraction(
		DiscordSlashCommandXKCD,
		integerOption(xkcdCommandNumberOption, 614),
	)
	c, handler := newTestLookupCommand(t, i)

	m.runXKCDCommand(context.Background(), c, 614, true, false)

	assert.Equal(t, LookupStateCompleted, c.State)
	edit := handler.lastEdit(t)
	require.NotNil(t, edit.WebhookEdit.Embeds)
	require.Len(t, *edit.WebhookEdit.Embeds, 1)
	embed := (*edit.WebhookEdit.Embeds)[0]
	assert.Equal(t, "Woodpecker", embed.Title)
	assert.Equal(t, "xkcd comic no. 614", embed.Footer.Text)

	require.NotNil(t, edit.WebhookEdit.Components)
	assert.Len(t, *edit.WebhookEdit.Components, 1)
}

func TestRunXKCDCommandLatest(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/info.0.json", r.URL.Path)
				_ = json.NewEncoder(w).Encode(Comic{Num: 3000, Title: "Latest"})
			},
		),
	)
	t.Cleanup(server.Close)

	m := newTestMarquee(t, server.URL)
	i := newTestInteraction(DiscordSlashCommandXKCD)
	c, handler := newTestLookupCommand(t, i)

	m.runXKCDCommand(context.Background(), c, 0, false, false)

	assert.Equal(t, LookupStateCompleted, c.State)
	assert.Equal(t, int64(1), m.api.RequestCount())
	edit := handler.lastEdit(t)
	require.NotNil(t, edit.WebhookEdit.Embeds)
	assert.Equal(t, "Latest", (*edit.WebhookEdit.Embeds)[0].Title)
}

func TestRunXKCDCommandRandom(t *testing.T) {
	var comicRequests int
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/info.0.json" {
					_ = json.NewEncoder(w).Encode(Comic{Num: 500, Title: "Latest"})
					return
				}
				comicRequests++
				_ = json.NewEncoder(w).Encode(Comic{Num: 123, Title: "Some Comic"})
			},
		),
	)
	t.Cleanup(server.Close)

	m := newTestMarquee(t, server.URL)
	i := newTestInteraction(
		DiscordSlashCommandXKCD,
		booleanOption(xkcdCommandRandomOption, true),
	)
	c, handler := newTestLookupCommand(t, i)

	m.runXKCDCommand(context.Background(), c, 0, false, true)

	assert.Equal(t, LookupStateCompleted, c.State)
	assert.Equal(t, 1, comicRequests)
	assert.Equal(t, int64(2), m.api.RequestCount())
	edit := handler.lastEdit(t)
	require.NotNil(t, edit.WebhookEdit.Embeds)
	assert.Equal(t, "Some Comic", (*edit.WebhookEdit.Embeds)[0].Title)
}

// A latest-comic payload without a usable number can't be sampled
// from; the command fails gracefully instead of panicking.
func TestRunXKCDCommandRandomDegenerateLatest(t *testing.T) {
	for _, num := range []int{0, 1} {
		server := httptest.NewServer(
			http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "/info.0.json", r.URL.Path)
					_ = json.NewEncoder(w).Encode(Comic{Num: num})
				},
			),
		)

		m := newTestMarquee(t, server.URL)
		i := newTestInteraction(
			DiscordSlashCommandXKCD,
			booleanOption(xkcdCommandRandomOption, true),
		)
		c, handler := newTestLookupCommand(t, i)

		assert.NotPanics(
			t,
			func() {
				m.runXKCDCommand(context.Background(), c, 0, false, true)
			},
		)

		assert.Equal(t, LookupStateFailed, c.State)
		assert.Equal(t, int64(1), m.api.RequestCount())
		edit := handler.lastEdit(t)
		require.NotNil(t, edit.WebhookEdit.Content)
		assert.Equal(t, DefaultDiscordErrorMessage, *edit.WebhookEdit.Content)

		server.Close()
	}
}

func TestRunXKCDCommandInvalidComicID(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		),
	)
	t.Cleanup(server.Close)

	m := newTestMarquee(t, server.URL)
	i := newTestInteraction(
		DiscordSlashCommandXKCD,
		integerOption(xkcdCommandNumberOption, 99999),
	)
	c, handler := newTestLookupCommand(t, i)

	m.runXKCDCommand(context.Background(), c, 99999, true, false)

	assert.Equal(t, LookupStateFetchFailed, c.State)
	edit := handler.lastEdit(t)
	require.NotNil(t, edit.WebhookEdit.Content)
	assert.Equal(t, "You did not provide a valid comic id.", *edit.WebhookEdit.Content)
	assert.Nil(t, edit.WebhookEdit.Embeds)
}
