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
	"fmt"

	"github.com/spf13/cobra"

	"sitebuilder/internal/stylepack"
)

func newStylesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "styles",
		Short: "Share custom stylesheets between designs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export <dir> <pack.zip>",
		Short: "Pack the design's styles folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := stylepack.Export(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "packed %d style files into %s\n", n, args[1])
			return nil
		},
	}, &cobra.Command{
		Use:   "install <dir> <pack.zip>",
		Short: "Install a style pack into the design, keeping existing files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := stylepack.Install(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %d style files\n", n)
			return nil
		},
	})
	return cmd
}
