// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package main

import (
	"github.com/spf13/cobra"

	"github.com/webhookrelay/relay/internal/config"
	"github.com/webhookrelay/relay/internal/store"
)

func newCmdMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the relay's database schema to the latest version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			sqlStore, err := store.New(cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}

			return sqlStore.Migrate()
		},
	}
}
