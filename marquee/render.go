package marquee

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	// discordMaxButtonsPerActionRow defines the maximum number of buttons
	// allowed per action row in Discord interactions.
	discordMaxButtonsPerActionRow = 5

	// embedFieldValueMaxLength is Discord's limit for a single embed
	// field value.
	embedFieldValueMaxLength = 1024
)

// DisplayField is one labeled value in a DisplayModel.
type DisplayField struct {
	Label  string
	Value  string
	Inline bool
}

// DisplayLink is one link button attached to a DisplayModel.
type DisplayLink struct {
	Label string
	URL   string
}

// DisplayModel is the rendered representation of a resource, decoupled
// from both the upstream API shape and Discord's message format. It's
// built once per invocation and never mutated afterward.
type DisplayModel struct {
	Title       string
	URL         string
	Description string
	Thumbnail   string
	Image       string
	Color       int
	Fields      []DisplayField
	Footer      string
	Links       []DisplayLink
}

// embed converts the model into a Discord embed.
func (m DisplayModel) embed() *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       m.Title,
		URL:         m.URL,
		Description: m.Description,
		Color:       m.Color,
	}
	if m.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.Thumbnail}
	}
	if m.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: m.Image}
	}
	if m.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: m.Footer}
	}
	for _, f := range m.Fields {
		embed.Fields = append(
			embed.Fields,
			&discordgo.MessageEmbedField{
				Name:   f.Label,
				Value:  truncate(f.Value, embedFieldValueMaxLength),
				Inline: f.Inline,
			},
		)
	}
	return embed
}

// components converts the model's links into rows of link buttons,
// preserving order, at most discordMaxButtonsPerActionRow per row.
func (m DisplayModel) components() []discordgo.MessageComponent {
	if len(m.Links) == 0 {
		return nil
	}
	var rows []discordgo.MessageComponent
	for _, chunk := range chunkItems(discordMaxButtonsPerActionRow, m.Links...) {
		buttons := make([]discordgo.MessageComponent, 0, len(chunk))
		for _, link := range chunk {
			buttons = append(
				buttons,
				discordgo.Button{
					Style: discordgo.LinkButton,
					Label: link.Label,
					URL:   link.URL,
				},
			)
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

// webhookEdit packages the model as an interaction response edit.
func (m DisplayModel) webhookEdit() *discordgo.WebhookEdit {
	content := ""
	embeds := []*discordgo.MessageEmbed{m.embed()}
	components := m.components()
	return &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}
}

// parseReleaseDate formats a YYYY-MM-DD date string as "Month D, Year".
// Anything unparseable (including the empty string TMDb uses for
// unreleased titles) comes back as "Unreleased".
func parseReleaseDate(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "Unreleased"
	}
	return parsed.Format("January 2, 2006")
}

// releaseYear returns just the year portion of a YYYY-MM-DD date string,
// or "Unreleased" when unparseable.
func releaseYear(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "Unreleased"
	}
	return parsed.Format("2006")
}
