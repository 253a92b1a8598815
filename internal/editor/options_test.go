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
	"testing"
	"time"

	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.General.ViewMode = "mobile"
	cfg.Editor.HistoryLimit = 25
	cfg.Editor.CoalesceMs = 400
	cfg.Editor.SnapToGrid = true

	opts := OptionsFrom(cfg)
	if opts.History.MaxEntries != 25 || opts.History.CoalesceWindow != 400*time.Millisecond {
		t.Fatalf("history = %+v", opts.History)
	}
	if opts.DuplicateOffset != (domain.Position{X: 10, Y: 10}) {
		t.Fatalf("offset = %+v", opts.DuplicateOffset)
	}

	s := New(opts)
	if s.ViewMode() != domain.ViewMobile {
		t.Fatalf("view mode = %q", s.ViewMode())
	}
	if !s.SnapToGrid() {
		t.Fatalf("expected snapping on")
	}
	e, err := s.OnDropCreate(domain.KindText, domain.Position{X: 14, Y: 26})
	if err != nil {
		t.Fatal(err)
	}
	if e.Position != (domain.Position{X: 10, Y: 30}) {
		t.Fatalf("snapped position = %+v", e.Position)
	}

	s.SetSnapToGrid(false)
	e, _ = s.OnDropCreate(domain.KindText, domain.Position{X: 14, Y: 26})
	if e.Position != (domain.Position{X: 14, Y: 26}) {
		t.Fatalf("unsnapped position = %+v", e.Position)
	}
}
