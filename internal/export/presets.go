/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"path/filepath"

	"sitebuilder/internal/domain"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls a batch export across formats and view modes.
//
// Path semantics: each view mode gets its own subfolder <OutDir>/<mode>/.
type BatchOptions struct {
	Preset    PresetName
	Formats   []Format          // empty means preset defaults
	ViewModes []domain.ViewMode // empty means the design's own mode
	// Grid overrides the preset's grid default when set.
	Grid   *bool
	OutDir string
	// Stylesheet is custom CSS appended to generated sites.
	Stylesheet string
}

// BatchExport runs WriteAll once per view mode.
func BatchExport(ctx context.Context, d domain.Design, opt BatchOptions) ([]string, error) {
	if opt.OutDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = opt.Preset.DefaultFormats()
	}
	modes := opt.ViewModes
	if len(modes) == 0 {
		mode := d.ViewMode
		if mode == "" {
			mode = domain.DefaultViewMode
		}
		modes = []domain.ViewMode{mode}
	}
	grid := presetIncludeGrid(opt.Preset)
	if opt.Grid != nil {
		grid = *opt.Grid
	}
	wo := WireframeOptions{Labels: true, Stylesheet: opt.Stylesheet}
	if grid {
		wo.GridSize = 20
	}

	var all []string
	for _, m := range modes {
		paths, err := WriteAll(ctx, filepath.Join(opt.OutDir, string(m)), d.Elements, m, formats, wo)
		if err != nil {
			return all, fmt.Errorf("%s: %w", m, err)
		}
		all = append(all, paths...)
	}
	return all, nil
}

// DefaultFormats is what a batch export writes when no formats are given.
func (p PresetName) DefaultFormats() []Format {
	switch p {
	case PresetWeb:
		return []Format{FormatHTML, FormatSVG, FormatPNG}
	case PresetPrint:
		return []Format{FormatPDF, FormatPNG}
	default:
		return []Format{FormatHTML}
	}
}

func presetIncludeGrid(p PresetName) bool {
	return p == PresetPrint
}
