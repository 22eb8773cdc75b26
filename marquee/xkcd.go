package marquee

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/lmittmann/tint"
)

const (
	xkcdBaseURL        = "https://xkcd.com"
	xkcdLatestEndpoint = xkcdBaseURL + "/info.0.json"
	xkcdWikiBaseURL    = "https://explainxkcd.com/wiki/index.php"

	xkcdEmbedColor = 0xfafafa

	// withdrawnComicNumber is xkcd's own comic 404: the site deliberately
	// serves an HTTP 404 for it, so random selection has to skip it.
	// TODO: re-check against the site if comic 404 is ever backfilled.
	withdrawnComicNumber = 404

	msgComicConflict  = "You cannot provide both a number and the random flag. Please use one or the other!"
	msgComicInvalidID = "You did not provide a valid comic id."
)

// Comic is the xkcd API payload for a single comic.
type Comic struct {
	// Num is the numeric ID of the xkcd comic.
	Num int `json:"num"`

	// Alt is the caption of the xkcd comic.
	Alt string `json:"alt"`

	// Img is the image URL of the xkcd comic.
	Img string `json:"img"`

	// Title is the title of the xkcd comic.
	Title string `json:"title"`
}

// xkcdComicEndpoint returns the info URL for a specific comic number.
func xkcdComicEndpoint(num int) string {
	return fmt.Sprintf("%s/%d/info.0.json", xkcdBaseURL, num)
}

// randomComicNumber samples a uniformly random comic number in
// [1, latest), resampling whenever it lands on the withdrawn comic.
// latest must be above 1.
func randomComicNumber(latest int) int {
	for {
		n := 1 + rand.IntN(latest-1)
		if n != withdrawnComicNumber {
			return n
		}
	}
}

// comicDisplayModel maps an xkcd comic onto a display model.
func comicDisplayModel(c Comic) DisplayModel {
	page := fmt.Sprintf("%s/%d/", xkcdBaseURL, c.Num)
	wiki := fmt.Sprintf("%s/%d", xkcdWikiBaseURL, c.Num)
	return DisplayModel{
		Title:       c.Title,
		URL:         page,
		Description: c.Alt,
		Image:       c.Img,
		Color:       xkcdEmbedColor,
		Footer:      fmt.Sprintf("xkcd comic no. %d", c.Num),
		Links: []DisplayLink{
			{Label: "View on xkcd", URL: page},
			{Label: "View wiki", URL: wiki},
		},
	}
}

// runXKCDCommand executes one /xkcd invocation. With no options it
// fetches the latest comic directly; with `number` it fetches that
// comic; with `random` it first fetches the latest comic to learn the
// current maximum number, then samples a random comic below it.
// Supplying both `number` and `random` is a user error, rejected before
// any upstream call is made.
func (m *Marquee) runXKCDCommand(
	ctx context.Context,
	c *LookupCommand,
	number int,
	hasNumber bool,
	random bool,
) {
	if hasNumber && random {
		c.setState(ctx, LookupStateRejected)
		c.reply(ctx, msgComicConflict)
		return
	}

	endpoint := xkcdLatestEndpoint
	switch {
	case hasNumber:
		endpoint = xkcdComicEndpoint(number)
	case random:
		c.setState(ctx, LookupStateSearching)
		var latest Comic
		if err := m.api.getJSON(ctx, xkcdLatestEndpoint, nil, &latest); err != nil {
			c.logger.ErrorContext(ctx, "error fetching latest comic", tint.Err(err))
			c.setState(ctx, LookupStateFailed)
			c.reply(ctx, m.config.Discord.ErrorMessage)
			return
		}
		// a 200 response with a missing or degenerate num leaves no
		// range to sample from
		if latest.Num <= 1 {
			c.logger.ErrorContext(
				ctx,
				"latest comic has no usable number",
				"num", latest.Num,
			)
			c.setState(ctx, LookupStateFailed)
			c.reply(ctx, m.config.Discord.ErrorMessage)
			return
		}
		endpoint = xkcdComicEndpoint(randomComicNumber(latest.Num))
	}

	c.setState(ctx, LookupStateFetching)
	var comic Comic
	if err := m.api.getJSON(ctx, endpoint, nil, &comic); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.setState(ctx, LookupStateFetchFailed)
			c.reply(ctx, msgComicInvalidID)
			return
		}
		c.logger.ErrorContext(ctx, "error fetching comic", tint.Err(err))
		c.setState(ctx, LookupStateFailed)
		c.reply(ctx, m.config.Discord.ErrorMessage)
		return
	}

	c.render(ctx, comicDisplayModel(comic))
}
