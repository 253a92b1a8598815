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
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"sitebuilder/internal/domain"
)

// Box is the wireframe geometry of one element in canvas pixels.
type Box struct {
	ID         string
	Kind       domain.Kind
	X, Y, W, H int
	Label      string
	Fill       color.RGBA
	HasFill    bool
}

// Frame is the laid-out canvas for one view mode.
type Frame struct {
	Mode   domain.ViewMode
	Width  int
	Height int
	Boxes  []Box
}

// Fallback box sizes for elements without an explicit size.
var defaultBox = map[domain.Kind][2]int{
	domain.KindHeading:   {320, 48},
	domain.KindText:      {320, 32},
	domain.KindButton:    {120, 40},
	domain.KindImage:     {300, 200},
	domain.KindLink:      {160, 24},
	domain.KindInput:     {220, 36},
	domain.KindContainer: {400, 200},
	domain.KindVideo:     {320, 180},
	domain.KindDivider:   {400, 8},
}

const (
	minCanvasHeight = 600
	canvasPadding   = 40
)

// Layout computes wireframe boxes in registry order. Widths given in % resolve against the canvas width.
func Layout(elems []domain.Element, mode domain.ViewMode) Frame {
	f := Frame{Mode: mode, Width: mode.CanvasWidth(), Height: minCanvasHeight}
	for _, e := range elems {
		def := defaultBox[e.Kind]
		b := Box{ID: e.ID, Kind: e.Kind, X: e.Position.X, Y: e.Position.Y, W: def[0], H: def[1]}
		if e.Size != nil {
			if w, ok := parseLength(e.Size.Width, f.Width); ok {
				b.W = w
			}
			if h, ok := parseLength(e.Size.Height, f.Width); ok {
				b.H = h
			}
		}
		if w, ok := parseLength(domain.StyleValue(e.StyleText, string(domain.PropWidth)), f.Width); ok {
			b.W = w
		}
		if h, ok := parseLength(domain.StyleValue(e.StyleText, string(domain.PropHeight)), f.Width); ok {
			b.H = h
		}
		if c, ok := parseColor(domain.StyleValue(e.StyleText, string(domain.PropBackgroundColor))); ok {
			b.Fill, b.HasFill = c, true
		}
		b.Label = label(e)
		if bottom := b.Y + b.H + canvasPadding; bottom > f.Height {
			f.Height = bottom
		}
		f.Boxes = append(f.Boxes, b)
	}
	return f
}

// parseLength accepts "120", "120px" and "50%".
func parseLength(v string, base int) (int, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" || v == "auto" {
		return 0, false
	}
	if p, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		return int(f * float64(base) / 100), true
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}

var namedColors = map[string]color.RGBA{
	"white": {255, 255, 255, 255},
	"black": {0, 0, 0, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 128, 0, 255},
	"blue":  {0, 0, 255, 255},
	"gray":  {128, 128, 128, 255},
	"grey":  {128, 128, 128, 255},
}

// parseColor understands #rgb, #rrggbb and a few names.
func parseColor(v string) (color.RGBA, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	if c, ok := namedColors[v]; ok {
		return c, true
	}
	hex, ok := strings.CutPrefix(v, "#")
	if !ok {
		return color.RGBA{}, false
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, true
}

// label is the element's visible text, or its kind when it has none.
func label(e domain.Element) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(e.Content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	if s == "" {
		return string(e.Kind)
	}
	if r := []rune(s); len(r) > 40 {
		s = string(r[:37]) + "..."
	}
	return s
}
