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
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"sitebuilder/internal/backend"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/storage"
)

// openGateway returns the configured persistence gateway for the design directory and its name.
func (c *cli) openGateway(dir string) (editor.Gateway, string, error) {
	switch name := strings.ToLower(strings.TrimSpace(c.cfg.General.Gateway)); name {
	case "", "file":
		root, err := filepath.Abs(dir)
		if err != nil {
			return nil, "", fmt.Errorf("resolve design dir: %w", err)
		}
		return storage.NewFileGateway(root, c.cfg.Storage.KeepRevisions), "file", nil
	case "http":
		if c.token == "" {
			return nil, "", errors.New("no backend token stored; run `sitebuilder login` first")
		}
		cl := backend.NewClient(c.cfg.Backend, c.token)
		cl.Design = c.design
		return cl, "http", nil
	default:
		return nil, "", fmt.Errorf("unknown gateway %q (want file or http)", name)
	}
}
