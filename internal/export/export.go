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
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"sitebuilder/internal/domain"
)

// Format names one export output.
type Format string

const (
	FormatHTML Format = "html" // index.html, style.css, script.js
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatZip  Format = "zip" // site files plus the PNG wireframe in one archive
)

var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists every supported format.
func Formats() []Format { return []Format{FormatHTML, FormatSVG, FormatPDF, FormatPNG, FormatZip} }

// ParseFormats reads a comma separated list such as "html,svg". Duplicates are dropped.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		switch f {
		case FormatHTML, FormatSVG, FormatPDF, FormatPNG, FormatZip:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Files a format writes, relative to the output directory.
func (f Format) Files() []string {
	switch f {
	case FormatHTML:
		return []string{"index.html", "style.css", "script.js"}
	case FormatSVG:
		return []string{"wireframe.svg"}
	case FormatPDF:
		return []string{"wireframe.pdf"}
	case FormatPNG:
		return []string{"wireframe.png"}
	case FormatZip:
		return []string{"site.zip"}
	}
	return nil
}

// WriteAll writes every requested format into outDir concurrently and returns the written paths.
// The first failure cancels the remaining writers.
func WriteAll(ctx context.Context, outDir string, elems []domain.Element, mode domain.ViewMode, formats []Format, opt WireframeOptions) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := writeFormat(outDir, f, elems, mode, opt); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var paths []string
	for _, f := range formats {
		for _, name := range f.Files() {
			paths = append(paths, filepath.Join(outDir, name))
		}
	}
	return paths, nil
}

func writeFormat(dir string, f Format, elems []domain.Element, mode domain.ViewMode, opt WireframeOptions) error {
	switch f {
	case FormatHTML:
		code, err := GenerateSite(elems, mode)
		if err != nil {
			return err
		}
		code = code.WithStylesheet(opt.Stylesheet)
		for name, text := range map[string]string{"index.html": code.HTML, "style.css": code.CSS, "script.js": code.JS} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
				return err
			}
		}
		return nil
	case FormatSVG:
		return writeFile(filepath.Join(dir, "wireframe.svg"), func(w io.Writer) error { return WriteSVG(w, elems, mode, opt) })
	case FormatPDF:
		return writeFile(filepath.Join(dir, "wireframe.pdf"), func(w io.Writer) error { return WritePDF(w, elems, mode, opt) })
	case FormatPNG:
		return writeFile(filepath.Join(dir, "wireframe.png"), func(w io.Writer) error { return WritePNG(w, elems, mode, opt) })
	case FormatZip:
		return writeFile(filepath.Join(dir, "site.zip"), func(w io.Writer) error { return WriteBundle(w, elems, mode, opt) })
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

// WriteBundle packages the generated site and its PNG wireframe as a ZIP archive.
func WriteBundle(w io.Writer, elems []domain.Element, mode domain.ViewMode, opt WireframeOptions) error {
	code, err := GenerateSite(elems, mode)
	if err != nil {
		return err
	}
	code = code.WithStylesheet(opt.Stylesheet)
	var img bytes.Buffer
	if err := WritePNG(&img, elems, mode, opt); err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	entries := []struct {
		name string
		data []byte
	}{
		{"index.html", []byte(code.HTML)},
		{"style.css", []byte(code.CSS)},
		{"script.js", []byte(code.JS)},
		{"wireframe.png", img.Bytes()},
	}
	for _, e := range entries {
		fw, err := zw.Create(e.name)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("zip create %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("zip write %s: %w", e.name, err)
		}
	}
	return zw.Close()
}
