// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package main is the entry point to the webhook relay server and CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "relay ingests events and reliably delivers them to subscribed webhooks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newCmdServe().RunE(cmd, args)
	},
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newCmdServe())
	rootCmd.AddCommand(newCmdMigrate())
	rootCmd.AddCommand(newCmdVersion())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
