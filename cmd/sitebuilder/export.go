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
	"strings"

	"github.com/spf13/cobra"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/export"
	"sitebuilder/internal/stylepack"
	"sitebuilder/internal/telemetry"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		formats string
		out     string
		views   string
		preset  string
		grid    bool
	)
	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Generate the site and wireframes for the saved design",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			gw, _, err := c.openGateway(dir)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			d, ok, err := gw.LoadDesign(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no design saved in %s", dir)
			}
			d.Normalize()

			opt := export.BatchOptions{Preset: export.PresetName(preset), OutDir: out}
			if opt.OutDir == "" {
				opt.OutDir = filepath.Join(dir, "export")
			}
			if formats != "" {
				if opt.Formats, err = export.ParseFormats(formats); err != nil {
					return err
				}
			}
			if views != "" {
				for _, v := range strings.Split(views, ",") {
					m, err := domain.ParseViewMode(strings.TrimSpace(v))
					if err != nil {
						return err
					}
					opt.ViewModes = append(opt.ViewModes, m)
				}
			}
			if cmd.Flags().Changed("grid") {
				opt.Grid = &grid
			}
			if opt.Stylesheet, err = stylepack.Stylesheet(dir); err != nil {
				return err
			}

			paths, err := export.BatchExport(ctx, d, opt)
			if err != nil {
				c.log.Error("export failed", slog.Any("err", err))
				return err
			}
			used := opt.Formats
			if len(used) == 0 {
				used = opt.Preset.DefaultFormats()
			}
			for _, f := range used {
				telemetry.DesignExported(string(f), string(d.ViewMode), len(d.Elements))
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			c.log.Info("export completed", slog.Int("files", len(paths)), slog.String("out", opt.OutDir))
			return nil
		},
	}
	cmd.Flags().StringVar(&formats, "format", "", "comma-separated formats: html, svg, pdf, png, zip (default from preset)")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default <dir>/export)")
	cmd.Flags().StringVar(&views, "view", "", "comma-separated view modes (default the design's)")
	cmd.Flags().StringVar(&preset, "preset", "", "export preset: web or print")
	cmd.Flags().BoolVar(&grid, "grid", false, "draw the layout grid on wireframes")
	return cmd
}
