package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/chanlog"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("severity", "info", "record severity to match sinks against")
	watchCmd.Flags().String("application", "", "application to match")
	watchCmd.Flags().String("module", "", "module to match")
	watchCmd.Flags().Duration("interval", 2*time.Second, "polling interval")
}

var watchCmd = &cobra.Command{
	Use:   "watch <channel>",
	Short: "Poll a channel's matching sinks at an interval, clearing the screen each tick",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID := args[0]

		sevName, _ := cmd.Flags().GetString("severity")
		application, _ := cmd.Flags().GetString("application")
		module, _ := cmd.Flags().GetString("module")
		interval, _ := cmd.Flags().GetDuration("interval")

		sev, err := chanlog.ParseSeverity(sevName)
		if err != nil {
			return err
		}

		fmt.Printf("Watching %q (Ctrl+C to stop)...\n", channelID)
		for {
			fmt.Print("\033[H\033[2J")
			fmt.Printf("chanlog watch - %s\n", time.Now().Format(time.RFC1123))
			fmt.Println("-------------------------------------------")
			printMatches(channelID, sev, application, module)
			time.Sleep(interval)
		}
	},
}

func printMatches(channelID string, sev chanlog.Severity, application, module string) {
	writers := manager.Select(channelID, sev, application, module)
	if len(writers) == 0 {
		fmt.Println("no sinks match")
		return
	}
	for _, w := range writers {
		fmt.Printf("%v\n", w.Writee())
	}
}
