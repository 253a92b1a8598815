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

	"github.com/jung-kurt/gofpdf"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/version"
)

// WritePDF writes a single-page wireframe. Units are canvas pixels mapped 1:1 to points.
// Vector text uses the built-in Helvetica so no fonts are embedded.
func WritePDF(w io.Writer, elems []domain.Element, mode domain.ViewMode, opt WireframeOptions) error {
	opt = opt.withDefaults()
	f := Layout(elems, mode)
	W, H := float64(f.Width), float64(f.Height)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: W, Ht: H},
	})
	pdf.SetTitle(fmt.Sprintf("Wireframe (%s)", f.Mode), false)
	pdf.SetCreator(version.String(), false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: W, Ht: H})
	pdf.SetFont("Helvetica", "", 10)

	if opt.GridSize > 0 {
		setDrawColor(pdf, opt.GridColor)
		pdf.SetLineWidth(0.5)
		for x := opt.GridSize; x < f.Width; x += opt.GridSize {
			pdf.Line(float64(x), 0, float64(x), H)
		}
		for y := opt.GridSize; y < f.Height; y += opt.GridSize {
			pdf.Line(0, float64(y), W, float64(y))
		}
	}

	setDrawColor(pdf, opt.Stroke)
	pdf.SetLineWidth(1)
	pdf.SetTextColor(int(opt.Stroke.R), int(opt.Stroke.G), int(opt.Stroke.B))
	for _, b := range f.Boxes {
		fill := opt.Fill
		if b.HasFill {
			fill = b.Fill
		}
		setFillColor(pdf, fill)
		pdf.Rect(float64(b.X), float64(b.Y), float64(b.W), float64(b.H), "FD")
		if opt.Labels {
			pdf.Text(float64(b.X+4), float64(b.Y+12), b.Label)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
