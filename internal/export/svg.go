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
	"image/color"
	"io"
	"strconv"

	"github.com/beevik/etree"
	"sitebuilder/internal/domain"
)

// WireframeOptions controls the SVG, PDF and PNG wireframes.
// Zero values select the defaults below.
type WireframeOptions struct {
	// GridSize > 0 draws a background grid with that spacing in pixels.
	GridSize  int
	Stroke    color.RGBA
	Fill      color.RGBA
	GridColor color.RGBA
	// Labels draws each element's text (or kind) inside its box.
	Labels bool
	// Stylesheet is appended to the generated CSS of the html and zip formats.
	Stylesheet string
}

func (o WireframeOptions) withDefaults() WireframeOptions {
	if o.Stroke == (color.RGBA{}) {
		o.Stroke = color.RGBA{R: 31, G: 41, B: 51, A: 255}
	}
	if o.Fill == (color.RGBA{}) {
		o.Fill = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	if o.GridColor == (color.RGBA{}) {
		o.GridColor = color.RGBA{R: 228, G: 231, B: 235, A: 255}
	}
	return o
}

// WriteSVG writes the wireframe of elems at the canvas width of mode.
func WriteSVG(w io.Writer, elems []domain.Element, mode domain.ViewMode, opt WireframeOptions) error {
	doc := BuildSVG(Layout(elems, mode), opt)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// BuildSVG renders a laid-out frame as an SVG document.
func BuildSVG(f Frame, opt WireframeOptions) *etree.Document {
	opt = opt.withDefaults()
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("version", "1.1")
	svg.CreateAttr("width", strconv.Itoa(f.Width))
	svg.CreateAttr("height", strconv.Itoa(f.Height))
	svg.CreateAttr("viewBox", fmt.Sprintf("0 0 %d %d", f.Width, f.Height))
	svg.CreateAttr("data-view-mode", string(f.Mode))

	bg := svg.CreateElement("rect")
	setRect(bg, 0, 0, f.Width, f.Height)
	bg.CreateAttr("fill", "#ffffff")

	if opt.GridSize > 0 {
		g := svg.CreateElement("g")
		g.CreateAttr("id", "grid")
		g.CreateAttr("stroke", hexColor(opt.GridColor))
		g.CreateAttr("stroke-width", "0.5")
		for x := opt.GridSize; x < f.Width; x += opt.GridSize {
			line(g, x, 0, x, f.Height)
		}
		for y := opt.GridSize; y < f.Height; y += opt.GridSize {
			line(g, 0, y, f.Width, y)
		}
	}

	for _, b := range f.Boxes {
		g := svg.CreateElement("g")
		g.CreateAttr("id", b.ID)
		g.CreateAttr("class", "element element-"+string(b.Kind))
		r := g.CreateElement("rect")
		setRect(r, b.X, b.Y, b.W, b.H)
		fill := opt.Fill
		if b.HasFill {
			fill = b.Fill
		}
		r.CreateAttr("fill", hexColor(fill))
		r.CreateAttr("stroke", hexColor(opt.Stroke))
		r.CreateAttr("stroke-width", "1")
		if opt.Labels {
			t := g.CreateElement("text")
			t.CreateAttr("x", strconv.Itoa(b.X+4))
			t.CreateAttr("y", strconv.Itoa(b.Y+14))
			t.CreateAttr("font-family", "Helvetica, Arial, sans-serif")
			t.CreateAttr("font-size", "12")
			t.CreateAttr("fill", hexColor(opt.Stroke))
			t.SetText(b.Label)
		}
	}
	doc.Indent(2)
	return doc
}

func setRect(e *etree.Element, x, y, w, h int) {
	e.CreateAttr("x", strconv.Itoa(x))
	e.CreateAttr("y", strconv.Itoa(y))
	e.CreateAttr("width", strconv.Itoa(w))
	e.CreateAttr("height", strconv.Itoa(h))
}

func line(parent *etree.Element, x1, y1, x2, y2 int) {
	l := parent.CreateElement("line")
	l.CreateAttr("x1", strconv.Itoa(x1))
	l.CreateAttr("y1", strconv.Itoa(y1))
	l.CreateAttr("x2", strconv.Itoa(x2))
	l.CreateAttr("y2", strconv.Itoa(y2))
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
