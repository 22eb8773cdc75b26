package marquee

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbSiteBaseURL  = "https://www.themoviedb.org"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p/original"
	imdbTitleBaseURL = "https://www.imdb.com/title"

	tmdbMovieEmbedColor      = 0x01b4e4
	tmdbShowEmbedColor       = 0x01b4e4
	tmdbCollectionEmbedColor = 0x01d277

	tmdbEmbedFooter = "Powered by the The Movie Database API."

	// Placeholder values for absent optional fields. Display values are
	// never left empty.
	placeholderUnreleased = "Unreleased"
	placeholderNoStudios  = "No Known Studios"
	placeholderUnknown    = "Unknown"
	placeholderNA         = "N/A"
	placeholderNoWebsite  = "No Website"
)

// SearchResponse is the common shape of TMDb search endpoints. Only the
// result ids are used; the first result wins, in API order.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult carries the minimal identity needed for a detail fetch.
type SearchResult struct {
	ID int64 `json:"id"`
}

// Genre is a named genre attached to a movie or show.
type Genre struct {
	Name string `json:"name"`
}

// Company is a production company or network.
type Company struct {
	Name string `json:"name"`
}

// CollectionRef is the collection stub embedded in a movie payload.
type CollectionRef struct {
	Name string `json:"name"`
}

// Movie is the TMDb movie detail payload. Most fields are optional
// upstream; absent values decode to zero values and are defaulted by
// the mapper.
type Movie struct {
	ID                  int64          `json:"id"`
	Title               string         `json:"title"`
	Tagline             string         `json:"tagline"`
	Overview            string         `json:"overview"`
	Status              string         `json:"status"`
	OriginalLanguage    string         `json:"original_language"`
	ReleaseDate         string         `json:"release_date"`
	Runtime             int            `json:"runtime"`
	Budget              uint64         `json:"budget"`
	Revenue             uint64         `json:"revenue"`
	Popularity          float64        `json:"popularity"`
	VoteAverage         float64        `json:"vote_average"`
	VoteCount           uint64         `json:"vote_count"`
	Homepage            string         `json:"homepage"`
	IMDBID              string         `json:"imdb_id"`
	PosterPath          string         `json:"poster_path"`
	Genres              []Genre        `json:"genres"`
	ProductionCompanies []Company      `json:"production_companies"`
	BelongsToCollection *CollectionRef `json:"belongs_to_collection"`
}

// Show is the TMDb TV series detail payload.
type Show struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Tagline          string    `json:"tagline"`
	Overview         string    `json:"overview"`
	Status           string    `json:"status"`
	OriginalLanguage string    `json:"original_language"`
	FirstAirDate     string    `json:"first_air_date"`
	LastAirDate      string    `json:"last_air_date"`
	NumberOfSeasons  int       `json:"number_of_seasons"`
	NumberOfEpisodes int       `json:"number_of_episodes"`
	EpisodeRunTime   []int     `json:"episode_run_time"`
	Popularity       float64   `json:"popularity"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        uint64    `json:"vote_count"`
	Homepage         string    `json:"homepage"`
	PosterPath       string    `json:"poster_path"`
	Genres           []Genre   `json:"genres"`
	Networks         []Company `json:"networks"`
	OriginCountry    []string  `json:"origin_country"`
}

// Collection is the TMDb collection detail payload.
type Collection struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	Overview   string           `json:"overview"`
	PosterPath string           `json:"poster_path"`
	Parts      []CollectionPart `json:"parts"`
}

// CollectionPart is one movie belonging to a collection.
type CollectionPart struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
}

// searchTMDB resolves a query against a TMDb search endpoint
// ("movie", "tv" or "collection"). A year above zero is passed as a
// release-year filter.
func (m *Marquee) searchTMDB(
	ctx context.Context,
	kind string,
	query string,
	year int,
) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", m.config.TMDB.APIKey)
	params.Set("query", query)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var resp SearchResponse
	err := m.api.getJSON(ctx, tmdbBaseURL+"/search/"+kind, params, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// fetchTMDBDetail fetches the detail resource of the given kind by id.
func fetchTMDBDetail[T any](
	ctx context.Context,
	m *Marquee,
	kind string,
	id int64,
) (*T, error) {
	params := url.Values{}
	params.Set("api_key", m.config.TMDB.APIKey)
	endpoint := fmt.Sprintf("%s/%s/%d", tmdbBaseURL, kind, id)
	var out T
	if err := m.api.getJSON(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// runTMDBLookup is the canonical search → fetch → map → emit pipeline
// shared by all TMDb resource kinds. The display callback turns the
// fetched detail resource into a display model.
func runTMDBLookup[T any](
	ctx context.Context,
	m *Marquee,
	c *LookupCommand,
	kind string,
	query string,
	year int,
	display func(T, int64) DisplayModel,
) {
	c.Query = query
	c.setState(ctx, LookupStateSearching)

	results, err := m.searchTMDB(ctx, kind, query, year)
	if err != nil {
		c.logger.ErrorContext(ctx, "tmdb search failed", tint.Err(err))
		c.setState(ctx, LookupStateFailed)
		c.reply(ctx, m.config.Discord.ErrorMessage)
		return
	}
	if len(results) == 0 {
		c.setState(ctx, LookupStateNotFound)
		c.reply(ctx, fmt.Sprintf(
			"Nothing found for `%s`. Please try another name.",
			query,
		))
		return
	}

	id := results[0].ID
	c.setState(ctx, LookupStateFetching)

	detail, err := fetchTMDBDetail[T](ctx, m, kind, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// the search result can reference an entry removed since
			// it was indexed
			c.setState(ctx, LookupStateFetchFailed)
			c.reply(ctx, fmt.Sprintf(
				"The top result for `%s` is not a valid TMDb id anymore. Please try another name.",
				query,
			))
			return
		}
		c.logger.ErrorContext(
			ctx,
			"tmdb detail fetch failed",
			tint.Err(err),
			"kind", kind,
			"id", id,
		)
		c.setState(ctx, LookupStateFailed)
		c.reply(ctx, m.config.Discord.ErrorMessage)
		return
	}

	c.render(ctx, display(*detail, id))
}

// posterURL prefixes a poster path fragment with the TMDb CDN base URL,
// stripping any path separators embedded in the fragment itself. Returns
// an empty string for an absent fragment.
func posterURL(fragment string) string {
	if fragment == "" {
		return ""
	}
	return tmdbImageBaseURL + "/" + strings.ReplaceAll(fragment, "/", "")
}

// descriptionFrom combines a tagline and overview: the tagline is
// emphasized when present, and the overview is separated by a blank
// line only when there's a tagline to separate it from.
func descriptionFrom(tagline string, overview string) string {
	var b strings.Builder
	if tagline != "" {
		b.WriteString("*" + tagline + "*")
	}
	if overview != "" {
		if tagline != "" {
			b.WriteString("\n\n")
		}
		b.WriteString(overview)
	}
	return b.String()
}

// joinNames joins a list of named items with newlines, falling back to
// the given placeholder when the list is empty.
func joinNames[T any](items []T, name func(T) string, placeholder string) string {
	if len(items) == 0 {
		return placeholder
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, name(item))
	}
	return strings.Join(names, "\n")
}

// userScore renders a 0-10 vote average as a percentage alongside the
// vote count.
func userScore(voteAverage float64, voteCount uint64) string {
	return fmt.Sprintf(
		"%d/100 (%s votes)",
		int(math.Round(voteAverage*10)),
		formatThousands(voteCount),
	)
}

func orPlaceholder(s string, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// movieDisplayModel maps a TMDb movie onto a display model, applying
// the fallback policy for every optional field.
func movieDisplayModel(movie Movie, id int64) DisplayModel {
	studios := joinNames(
		movie.ProductionCompanies,
		func(c Company) string { return c.Name },
		placeholderNoStudios,
	)
	genres := joinNames(
		movie.Genres,
		func(g Genre) string { return g.Name },
		placeholderUnknown,
	)

	collection := placeholderNA
	if movie.BelongsToCollection != nil {
		collection = movie.BelongsToCollection.Name
	}

	externalLinks := placeholderNoWebsite
	if movie.Homepage != "" {
		externalLinks = fmt.Sprintf("[Website](%s)", movie.Homepage)
	}
	if movie.IMDBID != "" {
		externalLinks = fmt.Sprintf(
			"%s | [IMDb](%s/%s)",
			externalLinks,
			imdbTitleBaseURL,
			movie.IMDBID,
		)
	}

	runtime := placeholderUnknown
	if movie.Runtime > 0 {
		runtime = formatRuntime(movie.Runtime)
	}

	return DisplayModel{
		Title:       movie.Title,
		URL:         fmt.Sprintf("%s/movie/%d", tmdbSiteBaseURL, id),
		Description: descriptionFrom(movie.Tagline, movie.Overview),
		Thumbnail:   posterURL(movie.PosterPath),
		Color:       tmdbMovieEmbedColor,
		Footer:      tmdbEmbedFooter,
		Fields: []DisplayField{
			{Label: "Status", Value: orPlaceholder(movie.Status, placeholderUnknown), Inline: true},
			{Label: "Film ID", Value: strconv.FormatInt(movie.ID, 10), Inline: true},
			{Label: "Language", Value: languageName(movie.OriginalLanguage), Inline: true},
			{Label: "Runtime", Value: runtime, Inline: true},
			{Label: "Release Date", Value: parseReleaseDate(movie.ReleaseDate), Inline: true},
			{Label: "Collection", Value: collection, Inline: true},
			{Label: "Popularity", Value: fmt.Sprintf("%d%%", int(math.Round(movie.Popularity))), Inline: true},
			{Label: "User Score", Value: userScore(movie.VoteAverage, movie.VoteCount), Inline: true},
			{Label: "Budget", Value: "$" + formatThousands(movie.Budget), Inline: true},
			{Label: "Box Office", Value: "$" + formatThousands(movie.Revenue), Inline: true},
			{Label: "Genres", Value: genres, Inline: true},
			{Label: "Studios", Value: studios, Inline: true},
			{Label: "External Links", Value: externalLinks, Inline: false},
		},
	}
}

// showDisplayModel maps a TMDb TV series onto a display model.
func showDisplayModel(show Show, id int64) DisplayModel {
	networks := joinNames(
		show.Networks,
		func(c Company) string { return c.Name },
		placeholderUnknown,
	)
	genres := joinNames(
		show.Genres,
		func(g Genre) string { return g.Name },
		placeholderUnknown,
	)

	countries := placeholderUnknown
	if len(show.OriginCountry) > 0 {
		names := make([]string, 0, len(show.OriginCountry))
		for _, code := range show.OriginCountry {
			names = append(names, countryName(code))
		}
		countries = strings.Join(names, "\n")
	}

	// episode_run_time is empty for some shows, and average doesn't
	// accept an empty sequence
	episodeRuntime := placeholderUnknown
	if len(show.EpisodeRunTime) > 0 {
		episodeRuntime = formatRuntime(int(math.Round(average(show.EpisodeRunTime))))
	}

	externalLinks := placeholderNoWebsite
	if show.Homepage != "" {
		externalLinks = fmt.Sprintf("[Website](%s)", show.Homepage)
	}

	return DisplayModel{
		Title:       show.Name,
		URL:         fmt.Sprintf("%s/tv/%d", tmdbSiteBaseURL, id),
		Description: descriptionFrom(show.Tagline, show.Overview),
		Thumbnail:   posterURL(show.PosterPath),
		Color:       tmdbShowEmbedColor,
		Footer:      tmdbEmbedFooter,
		Fields: []DisplayField{
			{Label: "Status", Value: orPlaceholder(show.Status, placeholderUnknown), Inline: true},
			{Label: "Show ID", Value: strconv.FormatInt(show.ID, 10), Inline: true},
			{Label: "Language", Value: languageName(show.OriginalLanguage), Inline: true},
			{Label: "Premiered", Value: parseReleaseDate(show.FirstAirDate), Inline: true},
			{Label: "Last Aired", Value: parseReleaseDate(show.LastAirDate), Inline: true},
			{Label: "Episode Runtime", Value: episodeRuntime, Inline: true},
			{Label: "Seasons", Value: strconv.Itoa(show.NumberOfSeasons), Inline: true},
			{Label: "Episodes", Value: strconv.Itoa(show.NumberOfEpisodes), Inline: true},
			{Label: "Popularity", Value: fmt.Sprintf("%d%%", int(math.Round(show.Popularity))), Inline: true},
			{Label: "User Score", Value: userScore(show.VoteAverage, show.VoteCount), Inline: true},
			{Label: "Genres", Value: genres, Inline: true},
			{Label: "Networks", Value: networks, Inline: true},
			{Label: "Country", Value: countries, Inline: true},
			{Label: "External Links", Value: externalLinks, Inline: false},
		},
	}
}

// collectionDisplayModel maps a TMDb collection onto a display model.
// Parts are sorted by ascending id before field and button generation,
// so ordering is deterministic regardless of API response order; both
// sequences come from the same sorted slice.
func collectionDisplayModel(collection Collection, id int64) DisplayModel {
	parts := make([]CollectionPart, len(collection.Parts))
	copy(parts, collection.Parts)
	slices.SortFunc(parts, func(a, b CollectionPart) int {
		return cmp.Compare(a.ID, b.ID)
	})

	fields := make([]DisplayField, 0, len(parts))
	links := make([]DisplayLink, 0, len(parts))
	for _, part := range parts {
		fields = append(fields, DisplayField{
			Label: fmt.Sprintf("%s (%s)", part.Title, releaseYear(part.ReleaseDate)),
			Value: orPlaceholder(part.Overview, "No overview available."),
		})
		links = append(links, DisplayLink{
			Label: part.Title,
			URL:   fmt.Sprintf("%s/movie/%d", tmdbSiteBaseURL, part.ID),
		})
	}

	return DisplayModel{
		Title:       collection.Name,
		URL:         fmt.Sprintf("%s/collection/%d", tmdbSiteBaseURL, id),
		Description: collection.Overview,
		Thumbnail:   posterURL(collection.PosterPath),
		Color:       tmdbCollectionEmbedColor,
		Fields:      fields,
		Links:       links,
	}
}

// runTMDBCommand routes a /tmdb invocation to the subcommand's lookup.
func (m *Marquee) runTMDBCommand(
	ctx context.Context,
	c *LookupCommand,
	subcommand string,
	query string,
	year int,
) {
	switch subcommand {
	case tmdbSubcommandMovie:
		runTMDBLookup(ctx, m, c, "movie", query, year, movieDisplayModel)
	case tmdbSubcommandShow:
		runTMDBLookup(ctx, m, c, "tv", query, 0, showDisplayModel)
	case tmdbSubcommandCollection:
		runTMDBLookup(ctx, m, c, "collection", query, 0, collectionDisplayModel)
	default:
		c.logger.WarnContext(ctx, "unknown tmdb subcommand", "subcommand", subcommand)
		c.setState(ctx, LookupStateFailed)
		c.reply(ctx, m.config.Discord.ErrorMessage)
	}
}
