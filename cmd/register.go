package cmd

import (
	"fmt"
	"log"

	"github.com/ewhall/marquee/marquee"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the bot's slash commands with Discord and exit",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		bot, err := marquee.New(cfg)
		if err != nil {
			log.Fatalf("error creating marquee: %s", err.Error())
		}
		if err = bot.ValidateConfig(); err != nil {
			log.Fatalf("invalid config: %s", err.Error())
		}

		created, err := bot.RegisterSlashCommands()
		if err != nil {
			log.Fatalf("error registering slash commands: %s", err.Error())
		}
		out := cmd.OutOrStdout()
		for _, c := range created {
			_, _ = fmt.Fprintf(out, "registered command: /%s\n", c.Name)
		}
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(registerCmd)
}
