/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/undo"
)

// OptionsFrom maps the editor and general config sections onto session options.
// Gateway and Surface are left for the caller.
func OptionsFrom(cfg config.AppConfig) Options {
	e := cfg.Editor
	return Options{
		History:         undo.Config{MaxEntries: e.HistoryLimit, CoalesceWindow: e.CoalesceWindow()},
		DuplicateOffset: domain.Position{X: e.DuplicateOffsetX, Y: e.DuplicateOffsetY},
		GridSize:        e.GridSize,
		SnapToGrid:      e.SnapToGrid,
		ViewMode:        domain.ViewMode(cfg.General.ViewMode),
	}
}

// SetSnapToGrid toggles snapping of dropped elements to the grid.
func (s *Session) SetSnapToGrid(on bool) { s.snap = on && s.grid > 0 }

// SnapToGrid reports whether dropped elements snap to the grid.
func (s *Session) SnapToGrid() bool { return s.snap }
