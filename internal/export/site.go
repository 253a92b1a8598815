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
	"sort"
	"strings"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/surface"
)

// Code is a generated static site: a complete HTML document plus its stylesheet and script
// as separate texts. The document inlines both.
type Code struct {
	HTML string
	CSS  string
	JS   string
}

// Generate builds the site for elems. markup is the rendered canvas (see surface.HTML.Render);
// the CSS targets the canvas width of mode.
func Generate(elems []domain.Element, markup string, mode domain.ViewMode) Code {
	css := generateCSS(elems, mode)
	js := generateJS(mode)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("    <meta charset=\"UTF-8\">\n")
	b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	b.WriteString("    <title>Generated Website</title>\n    <style>\n")
	b.WriteString(css)
	b.WriteString("    </style>\n</head>\n<body>\n")
	b.WriteString(markup)
	b.WriteString("\n    <script>\n")
	b.WriteString(js)
	b.WriteString("    </script>\n</body>\n</html>")
	return Code{HTML: b.String(), CSS: css, JS: js}
}

// WithStylesheet appends custom CSS after the generated rules, in style.css and in the inline style block.
func (c Code) WithStylesheet(css string) Code {
	if strings.TrimSpace(css) == "" {
		return c
	}
	c.HTML = strings.Replace(c.HTML, "    </style>", css+"    </style>", 1)
	c.CSS += css
	return c
}

// GenerateSite renders elems onto a fresh HTML surface and generates the site from it.
func GenerateSite(elems []domain.Element, mode domain.ViewMode) (Code, error) {
	s := surface.NewHTML()
	for _, e := range elems {
		s.Insert(e)
	}
	markup, err := s.Render()
	if err != nil {
		return Code{}, fmt.Errorf("render canvas: %w", err)
	}
	return Generate(elems, markup, mode), nil
}

var kindRules = map[domain.Kind]string{
	domain.KindButton:    "padding: 8px 16px; border: none; border-radius: 4px; cursor: pointer;",
	domain.KindImage:     "object-fit: cover;",
	domain.KindLink:      "text-decoration: underline;",
	domain.KindInput:     "padding: 6px 8px; border: 1px solid #cbd2d9; border-radius: 4px;",
	domain.KindContainer: "border: 1px dashed #cbd2d9;",
	domain.KindDivider:   "border: none;",
}

func generateCSS(elems []domain.Element, mode domain.ViewMode) string {
	f := Layout(elems, mode)
	var b strings.Builder
	fmt.Fprintf(&b, "        * { box-sizing: border-box; }\n")
	fmt.Fprintf(&b, "        body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, \"Segoe UI\", Roboto, sans-serif; }\n")
	fmt.Fprintf(&b, "        .canvas { position: relative; width: %dpx; min-height: %dpx; margin: 0 auto; }\n", f.Width, f.Height)
	fmt.Fprintf(&b, "        .element { position: absolute; }\n")
	fmt.Fprintf(&b, "        .element img, .element video { width: 100%%; height: 100%%; }\n")

	used := map[domain.Kind]bool{}
	for _, e := range elems {
		used[e.Kind] = true
	}
	kinds := make([]string, 0, len(used))
	for k := range used {
		if _, ok := kindRules[k]; ok {
			kinds = append(kinds, string(k))
		}
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "        .element-%s { %s }\n", k, kindRules[domain.Kind(k)])
	}
	if mode != domain.ViewMobile {
		fmt.Fprintf(&b, "        @media (max-width: %dpx) { .canvas { transform-origin: top left; } }\n", f.Width)
	}
	return b.String()
}

func generateJS(mode domain.ViewMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "        (function () {\n")
	fmt.Fprintf(&b, "            var designWidth = %d;\n", mode.CanvasWidth())
	b.WriteString(`            function fit() {
                var canvas = document.getElementById('canvas');
                if (!canvas) { return; }
                var scale = Math.min(1, window.innerWidth / designWidth);
                canvas.style.transform = scale < 1 ? 'scale(' + scale + ')' : '';
                canvas.style.transformOrigin = 'top left';
            }
            window.addEventListener('resize', fit);
            document.addEventListener('DOMContentLoaded', fit);
        })();
`)
	return b.String()
}
