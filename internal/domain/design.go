/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ViewMode is the device preview the canvas is laid out for.
type ViewMode string

const (
	ViewDesktop ViewMode = "desktop"
	ViewTablet  ViewMode = "tablet"
	ViewMobile  ViewMode = "mobile"
)

// DefaultViewMode is used whenever a design carries no usable view mode.
const DefaultViewMode = ViewDesktop

var ErrUnknownViewMode = errors.New("unknown view mode")

// ParseViewMode resolves a view mode name, case-insensitively.
func ParseViewMode(s string) (ViewMode, error) {
	m := ViewMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ViewDesktop, ViewTablet, ViewMobile:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownViewMode, s)
}

// CanvasWidth is the preview width in pixels.
func (m ViewMode) CanvasWidth() int {
	switch m {
	case ViewTablet:
		return 768
	case ViewMobile:
		return 375
	default:
		return 1280
	}
}

// Design is the persisted state of an editing session.
// History holds opaque serialized action records; HistoryIndex is nil when the cursor sits at the end.
type Design struct {
	Elements     []Element `json:"elements"`
	History      []string  `json:"history"`
	HistoryIndex *int      `json:"historyIndex,omitempty"`
	ViewMode     ViewMode  `json:"viewMode"`
}

// Cursor returns the effective history index, clamped to [-1, len(History)-1].
func (d Design) Cursor() int {
	last := len(d.History) - 1
	if d.HistoryIndex == nil {
		return last
	}
	i := *d.HistoryIndex
	if i < -1 {
		return -1
	}
	if i > last {
		return last
	}
	return i
}

// Clone returns a deep copy.
func (d Design) Clone() Design {
	c := Design{ViewMode: d.ViewMode}
	c.Elements = make([]Element, len(d.Elements))
	for i, e := range d.Elements {
		c.Elements[i] = e.Clone()
	}
	c.History = append([]string(nil), d.History...)
	if d.HistoryIndex != nil {
		i := *d.HistoryIndex
		c.HistoryIndex = &i
	}
	return c
}

// EncodeDesign renders the design as indented JSON.
func EncodeDesign(d Design) ([]byte, error) {
	if d.Elements == nil {
		d.Elements = []Element{}
	}
	if d.History == nil {
		d.History = []string{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// DecodeDesign parses a persisted design leniently: elements, history, historyIndex and viewMode are
// decoded independently, and a malformed part falls back to its default. The returned issues describe
// every part that was defaulted or repaired. An error is returned only when data is not a JSON object.
func DecodeDesign(data []byte) (Design, []string, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Design{}, nil, fmt.Errorf("decode design: %w", err)
	}
	if raw == nil {
		return Design{}, nil, errors.New("decode design: not an object")
	}
	var d Design
	var issues []string

	if msg, ok := raw["elements"]; ok && !isNull(msg) {
		var items []json.RawMessage
		if err := json.Unmarshal(msg, &items); err != nil {
			issues = append(issues, "elements: "+err.Error())
		}
		for i, item := range items {
			var e Element
			if err := json.Unmarshal(item, &e); err != nil {
				issues = append(issues, fmt.Sprintf("elements[%d]: %v", i, err))
				continue
			}
			d.Elements = append(d.Elements, e)
		}
	}
	if msg, ok := raw["history"]; ok && !isNull(msg) {
		if err := json.Unmarshal(msg, &d.History); err != nil {
			issues = append(issues, "history: "+err.Error())
			d.History = nil
		}
	}
	if msg, ok := raw["historyIndex"]; ok && !isNull(msg) {
		var i int
		if err := json.Unmarshal(msg, &i); err != nil {
			issues = append(issues, "historyIndex: "+err.Error())
		} else {
			d.HistoryIndex = &i
		}
	}
	mode, ok := raw["viewMode"]
	if !ok {
		mode, ok = raw["deviceView"]
	}
	if ok && !isNull(mode) {
		var s string
		if err := json.Unmarshal(mode, &s); err != nil {
			issues = append(issues, "viewMode: "+err.Error())
		} else {
			d.ViewMode = ViewMode(s)
		}
	}
	issues = append(issues, d.Normalize()...)
	return d, issues, nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

// Normalize repairs a design in place and reports what it changed: unknown kinds are dropped,
// empty ids regenerated, duplicate ids dropped, style text canonicalized, an unknown view mode
// replaced by the default and the history index clamped.
func (d *Design) Normalize() []string {
	var issues []string
	seen := make(map[string]bool, len(d.Elements))
	kept := make([]Element, 0, len(d.Elements))
	for _, e := range d.Elements {
		if !e.Kind.Valid() {
			issues = append(issues, fmt.Sprintf("element %q: unknown kind %q dropped", e.ID, e.Kind))
			continue
		}
		if e.ID == "" {
			e.ID = NewID(e.Kind)
			issues = append(issues, fmt.Sprintf("element of kind %q: missing id replaced by %q", e.Kind, e.ID))
		}
		if seen[e.ID] {
			issues = append(issues, fmt.Sprintf("element %q: duplicate id dropped", e.ID))
			continue
		}
		seen[e.ID] = true
		e.StyleText = CanonicalStyle(e.StyleText)
		if e.Size != nil && e.Size.Width == "" && e.Size.Height == "" {
			e.Size = nil
		}
		kept = append(kept, e)
	}
	d.Elements = kept

	if d.ViewMode == "" {
		d.ViewMode = DefaultViewMode
	} else if m, err := ParseViewMode(string(d.ViewMode)); err != nil {
		issues = append(issues, fmt.Sprintf("viewMode %q replaced by %q", d.ViewMode, DefaultViewMode))
		d.ViewMode = DefaultViewMode
	} else {
		d.ViewMode = m
	}

	if d.HistoryIndex != nil {
		c := d.Cursor()
		if c != *d.HistoryIndex {
			issues = append(issues, fmt.Sprintf("historyIndex %d clamped to %d", *d.HistoryIndex, c))
		}
		if c == len(d.History)-1 {
			d.HistoryIndex = nil
		} else {
			d.HistoryIndex = &c
		}
	}
	return issues
}
