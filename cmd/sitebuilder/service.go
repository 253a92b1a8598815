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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sitebuilder/internal/backend"
	"sitebuilder/internal/config"
	"sitebuilder/internal/ui"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr        string
		issueTokens bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the design service backed by Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("issue-tokens") {
				cfg.Server.IssueTokens = issueTokens
			}
			if config.AuthSecret() == "" {
				c.log.Warn("SB_AUTH_SECRET not set; tokens are signed with the development secret")
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return backend.Start(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&issueTokens, "issue-tokens", false, "serve POST /api/auth/token to any caller (default from config)")
	return cmd
}

func newUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [dir]",
		Short: "Launch the desktop editor (build with -tags fyne)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := ui.Options{Config: c.cfg, Gateway: c.openGateway}
			if len(args) == 1 {
				opts.Dir = args[0]
			}
			return ui.Run(opts)
		},
	}
}

func newLoginCmd(c *cli) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		token   string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a design service token and store it in the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				cl := backend.NewClient(c.cfg.Backend, "")
				ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Backend.Timeout())
				defer cancel()
				tok, exp, err := cl.RequestToken(ctx, subject, ttl)
				if err != nil {
					return fmt.Errorf("request token: %w", err)
				}
				token = tok
				fmt.Fprintf(cmd.OutOrStdout(), "Token for %s valid until %s\n", subject, exp.Format(time.RFC3339))
			}
			if err := config.Save(c.cfg, token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			c.log.Info("backend token stored", slog.String("subject", subject))
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored in the OS keyring")
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "dev", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&token, "token", "", "store this token instead of requesting one")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored design service token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ClearToken(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			c.log.Info("backend token removed")
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed")
			return nil
		},
	}
}
