package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(channelCmd)
	channelCmd.AddCommand(channelListCmd)
	channelCmd.AddCommand(channelCreateCmd)
	channelCmd.AddCommand(channelDeleteCmd)
}

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Manage channels loaded from the channel file",
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every channel currently loaded",
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range manager.ListChannels() {
			fmt.Println(id)
		}
	},
}

var channelCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a new, empty channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return manager.CreateChannel(args[0])
	},
}

var channelDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Tear down a channel and every sink installed on it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return manager.DeleteChannel(args[0])
	},
}
