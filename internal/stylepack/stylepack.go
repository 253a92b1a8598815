/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package stylepack shares custom stylesheets between designs. A design keeps
// them under <design>/styles; exported sites append them to style.css.
package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "sitebuilder/internal/log"
)

const (
	// Dir is the styles folder inside a design directory.
	Dir          = "styles"
	manifestName = "stylepack.manifest.txt"
)

// ErrUnsafePath reports a pack entry that would land outside the styles folder.
var ErrUnsafePath = errors.New("pack entry escapes styles directory")

// Export zips the design's styles folder into destZip together with a manifest.
// A design without styles still yields an archive holding only the manifest.
// It returns the number of style files packed.
func Export(designDir, destZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("design", designDir))
	if strings.TrimSpace(designDir) == "" || strings.TrimSpace(destZip) == "" {
		return 0, errors.New("design dir and destination are required")
	}
	stylesDir := filepath.Join(designDir, Dir)
	if err := os.MkdirAll(stylesDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure styles dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZip)

	zf, err := os.Create(destZip)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("SiteBuilder Style Pack\nCreated: %s\nDesign: %s\n\nContents mirror the design's /styles directory.\n",
		time.Now().Format(time.RFC3339), filepath.Base(designDir))
	w, err := zw.Create(manifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	err = filepath.WalkDir(stylesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(designDir, path)
		if err != nil {
			return err
		}
		fw, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		_ = zw.Close()
		l.Error("zip build failed", slog.Any("err", err))
		return added, fmt.Errorf("build zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("finish zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("files", added), slog.String("zip", destZip))
	return added, nil
}

// Install extracts packZip into the design's styles folder. Entries not already
// under styles/ are placed there. Existing files are kept and not counted.
func Install(designDir, packZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("design", designDir))
	if strings.TrimSpace(designDir) == "" || strings.TrimSpace(packZip) == "" {
		return 0, errors.New("design dir and pack are required")
	}
	stylesDir := filepath.Join(designDir, Dir)
	if err := os.MkdirAll(stylesDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure styles dir: %w", err)
	}
	r, err := zip.OpenReader(packZip)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		rel := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(f.Name)), Dir+"/")
		if f.Name == manifestName || rel == Dir {
			continue
		}
		target := filepath.Join(stylesDir, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, stylesDir+string(filepath.Separator)) {
			return installed, fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extract(f, target); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("style pack installed", slog.Int("files", installed))
	return installed, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Stylesheet concatenates the design's *.css files in path order. A design
// without a styles folder has an empty stylesheet.
func Stylesheet(designDir string) (string, error) {
	stylesDir := filepath.Join(designDir, Dir)
	var files []string
	err := filepath.WalkDir(stylesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".css") {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read styles: %w", err)
	}
	sort.Strings(files)
	var b strings.Builder
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		rel, _ := filepath.Rel(stylesDir, path)
		fmt.Fprintf(&b, "        /* %s */\n", filepath.ToSlash(rel))
		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
