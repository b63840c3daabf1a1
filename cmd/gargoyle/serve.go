// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/blinklabs-io/gargoyle/internal/config"
	"github.com/blinklabs-io/gargoyle/internal/node"
	"github.com/spf13/cobra"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun()
	// Run node
	if err := node.Run(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// applyServeFlags lets explicitly set flags override the loaded config
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("api-port") {
		if cfg.ApiPort, err = flags.GetUint("api-port"); err != nil {
			return err
		}
	}
	if flags.Changed("db-path") {
		if cfg.DatabasePath, err = flags.GetString("db-path"); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the governance node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			if err := applyServeFlags(cmd, cfg); err != nil {
				return err
			}
			serveRun(cmd, args, cfg)
			return nil
		},
	}
	cmd.Flags().Uint("api-port", 0, "override the API port")
	cmd.Flags().String("db-path", "", "override the database path")
	return cmd
}
