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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"sitebuilder/internal/domain"
)

// RenderPNG rasterizes the wireframe at one pixel per canvas pixel.
func RenderPNG(elems []domain.Element, mode domain.ViewMode, opt WireframeOptions) *image.RGBA {
	opt = opt.withDefaults()
	f := Layout(elems, mode)
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	if opt.GridSize > 0 {
		for x := opt.GridSize; x < f.Width; x += opt.GridSize {
			for y := 0; y < f.Height; y++ {
				img.SetRGBA(x, y, opt.GridColor)
			}
		}
		for y := opt.GridSize; y < f.Height; y += opt.GridSize {
			for x := 0; x < f.Width; x++ {
				img.SetRGBA(x, y, opt.GridColor)
			}
		}
	}

	d := &font.Drawer{Dst: img, Src: image.NewUniform(opt.Stroke), Face: basicfont.Face7x13}
	for _, b := range f.Boxes {
		x0, y0, x1, y1 := b.X, b.Y, b.X+b.W-1, b.Y+b.H-1
		fill := opt.Fill
		if b.HasFill {
			fill = b.Fill
		}
		fillRect(img, x0, y0, x1, y1, fill)
		strokeRect(img, x0, y0, x1, y1, opt.Stroke)
		if opt.Labels && b.H >= 15 {
			d.Dot = fixed.P(b.X+4, b.Y+13)
			d.DrawString(clipLabel(b.Label, b.W-8))
		}
	}
	return img
}

// WritePNG encodes RenderPNG's image.
func WritePNG(w io.Writer, elems []domain.Element, mode domain.ViewMode, opt WireframeOptions) error {
	if err := png.Encode(w, RenderPNG(elems, mode, opt)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// clipLabel trims s to fit width pixels of the 7px basic face.
func clipLabel(s string, width int) string {
	n := width / basicfont.Face7x13.Advance
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
