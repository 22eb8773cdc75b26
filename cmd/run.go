package cmd

import (
	"log"

	"github.com/ewhall/marquee/marquee"
	"github.com/spf13/cobra"
)

var (
	runCmd = &cobra.Command{
		Use:   "run [flags]",
		Short: "Starts the Marquee bot",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			bot, err := marquee.New(cfg)
			if err != nil {
				log.Fatalf("error creating marquee: %s", err.Error())
			}

			if err = bot.Run(ctx); err != nil {
				log.Fatalf("error running marquee: %s", err.Error())
			}
		},
	}
)

//goland:noinspection GoLinter
func init() {
	rootCmd.AddCommand(runCmd)
}
