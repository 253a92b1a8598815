/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package stylepack

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStyle(t *testing.T, dir, rel, body string) {
	t.Helper()
	p := filepath.Join(dir, Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestExportAndInstall(t *testing.T) {
	src := t.TempDir()
	writeStyle(t, src, "brand.css", ".element-button { border-radius: 12px; }\n")
	writeStyle(t, src, "fonts/headings.css", "h1 { font-family: serif; }\n")

	zipPath := filepath.Join(t.TempDir(), "packs", "brand.zip")
	n, err := Export(src, zipPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("exported %d files, want 2", n)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	for _, want := range []string{manifestName, "styles/brand.css", "styles/fonts/headings.css"} {
		if !names[want] {
			t.Fatalf("zip missing %s; have %v", want, names)
		}
	}

	dst := t.TempDir()
	writeStyle(t, dst, "brand.css", "/* local */\n")
	n, err = Install(dst, zipPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if n != 1 {
		t.Fatalf("installed %d files, want 1 (brand.css exists)", n)
	}
	got, _ := os.ReadFile(filepath.Join(dst, Dir, "brand.css"))
	if string(got) != "/* local */\n" {
		t.Fatalf("existing file overwritten: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dst, Dir, "fonts", "headings.css")); err != nil {
		t.Fatalf("nested style not installed: %v", err)
	}
}

func TestExportWithoutStyles(t *testing.T) {
	if _, err := Export("", ""); err == nil {
		t.Fatalf("expected error on empty args")
	}
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "empty.zip")
	n, err := Export(dir, zipPath)
	if err != nil || n != 0 {
		t.Fatalf("export empty = %d, %v", n, err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	if len(r.File) != 1 || r.File[0].Name != manifestName {
		t.Fatalf("want only the manifest, got %d entries", len(r.File))
	}
}

func TestInstallPrefixesAndRejectsEscapes(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pack.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("theme/dark.css")
	_, _ = w.Write([]byte("body { background: #000; }"))
	_ = zw.Close()
	_ = f.Close()

	design := t.TempDir()
	if n, err := Install(design, zipPath); err != nil || n != 1 {
		t.Fatalf("install = %d, %v", n, err)
	}
	if _, err := os.Stat(filepath.Join(design, Dir, "theme", "dark.css")); err != nil {
		t.Fatalf("entry not placed under styles/: %v", err)
	}

	evil := filepath.Join(dir, "evil.zip")
	f, _ = os.Create(evil)
	zw = zip.NewWriter(f)
	w, _ = zw.Create("../../escape.css")
	_, _ = w.Write([]byte("x"))
	_ = zw.Close()
	_ = f.Close()
	if _, err := Install(design, evil); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("want ErrUnsafePath, got %v", err)
	}
}

func TestStylesheet(t *testing.T) {
	dir := t.TempDir()
	if css, err := Stylesheet(dir); err != nil || css != "" {
		t.Fatalf("no styles = %q, %v", css, err)
	}
	writeStyle(t, dir, "b.css", "b {}")
	writeStyle(t, dir, "a.css", "a {}\n")
	writeStyle(t, dir, "notes.txt", "ignored")
	css, err := Stylesheet(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := "        /* a.css */\na {}\n        /* b.css */\nb {}\n"
	if css != want {
		t.Fatalf("stylesheet = %q, want %q", css, want)
	}
	if strings.Contains(css, "ignored") {
		t.Fatalf("non-css file included")
	}
}
