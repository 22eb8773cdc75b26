// Package marquee implements a Discord bot that looks up comics on
// xkcd and movies, TV shows and collections on The Movie Database
// (TMDb), presenting results as rich embeds with link buttons.
//
// Marquee receives slash-command interactions over the Discord gateway,
// acknowledges each with a deferred response, queries the upstream REST
// API, and finalizes the response by editing in an embed or a plain
// explanatory message.
//
// Key components of the package include:
//
//   - Marquee: The main struct that encapsulates the bot's core functionality.
//   - Discord: Handles the gateway session and slash-command registration.
//   - LookupCommand: Tracks a single invocation through the
//     search/fetch/render pipeline.
//   - DisplayModel: A renderer-agnostic description of a lookup result,
//     converted into Discord embeds and components.
//
// The bot supports the following commands:
//
//   - /xkcd: Retrieves the latest, a specific, or a random xkcd comic.
//   - /tmdb movie|show|collection: Looks up TMDb entries by name.
//   - /hello: Greets the invoking user.
//   - /source: Posts a link to the bot's source code.
package marquee
