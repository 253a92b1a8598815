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
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/storage"
)

func newInitCmd(c *cli) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create an empty design at <dir>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if mode == "" {
				mode = c.cfg.General.ViewMode
			}
			vm, err := domain.ParseViewMode(mode)
			if err != nil {
				return err
			}
			c.log.Info("init design", slog.String("root", abs), slog.String("view_mode", string(vm)))
			h, err := storage.InitDesign(abs, domain.Design{ViewMode: vm})
			if err != nil {
				c.log.Error("init failed", slog.Any("err", err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created design at", h.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "view", "", "initial view mode (desktop, tablet, mobile)")
	return cmd
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show [dir]",
		Short: "Print a summary of the design",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			gw, name, err := c.openGateway(dir)
			if err != nil {
				return err
			}
			d, ok, err := gw.LoadDesign(context.Background())
			if err != nil {
				c.log.Error("load failed", slog.Any("err", err))
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "No design saved yet (%s gateway)\n", name)
				return nil
			}
			d.Normalize()
			fmt.Fprintf(out, "Elements: %d\n", len(d.Elements))
			fmt.Fprintf(out, "History: %d (cursor %d)\n", len(d.History), d.Cursor())
			fmt.Fprintf(out, "View mode: %s\n", d.ViewMode)
			if fg, ok := gw.(*storage.FileGateway); ok {
				sum, err := fg.Summary(context.Background(), 1)
				if err != nil {
					c.log.Warn("index unavailable", slog.Any("err", err))
					return nil
				}
				for _, k := range domain.Kinds() {
					if n := sum.Counts[k]; n > 0 {
						fmt.Fprintf(out, "  %s: %d\n", k, n)
					}
				}
				if len(sum.Revisions) > 0 {
					fmt.Fprintf(out, "Last saved: %s\n", sum.Revisions[0].TS.Format(time.RFC3339))
				}
				if len(sum.Publications) > 0 {
					fmt.Fprintf(out, "Last published: %s\n", sum.Publications[0].TS.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}
