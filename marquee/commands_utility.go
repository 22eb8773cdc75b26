package marquee

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const sourceRepositoryURL = "https://github.com/ewhall/marquee"

// runHelloCommand says hello to the user who invoked the command.
func (m *Marquee) runHelloCommand(
	ctx context.Context,
	c *LookupCommand,
	u *discordgo.User,
) {
	name := u.Username
	if u.GlobalName != "" {
		name = u.GlobalName
	}
	c.reply(ctx, fmt.Sprintf("Hello, **%s**!", name))
	c.setState(ctx, LookupStateCompleted)
}

// runSourceCommand posts a link to the bot's source code. The URL is
// wrapped in angle brackets to suppress Discord's link preview.
func (m *Marquee) runSourceCommand(ctx context.Context, c *LookupCommand) {
	c.reply(ctx, fmt.Sprintf("GitHub repository: <%s>", sourceRepositoryURL))
	c.setState(ctx, LookupStateCompleted)
}
