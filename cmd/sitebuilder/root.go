/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"sitebuilder/internal/config"
	applog "sitebuilder/internal/log"
	"sitebuilder/internal/telemetry"
	"sitebuilder/internal/version"
)

// cli carries the loaded configuration to the subcommands.
type cli struct {
	cfg     config.AppConfig
	token   string
	gateway string
	design  string
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "sitebuilder",
		Short:         "Canvas site builder with undo/redo edit history",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			telemetry.Flush(ctx)
		},
	}
	root.SetVersionTemplate("SiteBuilder {{.Version}}\n")
	root.PersistentFlags().StringVar(&c.gateway, "gateway", "", `persistence gateway: "file" or "http" (default from config)`)
	root.PersistentFlags().StringVar(&c.design, "design", "", "design name on the backend (http gateway)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(c),
		newShowCmd(c),
		newEditCmd(c),
		newExportCmd(c),
		newStylesCmd(),
		newServeCmd(c),
		newUICmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
	)
	return root
}

// setup loads the config, initializes logging from it and installs the telemetry client.
func (c *cli) setup() error {
	cfg, tok, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg, c.token = cfg, tok
	if c.gateway != "" {
		c.cfg.General.Gateway = c.gateway
	}

	opts := applog.FromEnv()
	opts.Level = cfg.Logging.Level
	opts.Format = cfg.Logging.Format
	opts.AddSource = cfg.Logging.Source
	opts.File = cfg.Logging.File
	applog.Init(opts)
	c.log = applog.WithComponent("cli")

	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	telemetry.NewDefault(tcfg)
	c.log.Debug("config loaded", slog.String("gateway", c.cfg.General.Gateway), slog.String("view_mode", c.cfg.General.ViewMode))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "SiteBuilder")
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
