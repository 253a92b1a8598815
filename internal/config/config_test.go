/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zalando/go-keyring"
)

func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, p)
	return p
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	isolate(t)
	cfg, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "" {
		t.Fatalf("token = %q, want empty", tok)
	}
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("backend.base_url"); !ok || name != EnvBackendURL {
		t.Fatalf("EnvOverrideFor = %q,%v", name, ok)
	}
}

func TestTokenIssuingOffByDefault(t *testing.T) {
	isolate(t)
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.IssueTokens {
		t.Fatalf("token issuing enabled by default")
	}
	t.Setenv(EnvIssueTokens, "true")
	cfg, _, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Server.IssueTokens {
		t.Fatalf("%s did not enable token issuing", EnvIssueTokens)
	}
}

func TestEnvOverridesEditorAndGateway(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHistoryLimit, "25")
	t.Setenv(EnvSnapToGrid, "yes")
	t.Setenv(EnvGateway, "HTTP")
	t.Setenv(EnvViewMode, "Mobile")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryLimit != 25 || !cfg.Editor.SnapToGrid {
		t.Fatalf("editor overrides not applied: %#v", cfg.Editor)
	}
	if cfg.General.Gateway != "http" || cfg.General.ViewMode != "mobile" {
		t.Fatalf("general overrides not applied: %#v", cfg.General)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/sb.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := LoggingConfig{Level: "error", Format: "json", Source: true, File: "/tmp/sb.log"}
	if diff := cmp.Diff(want, cfg.Logging); diff != "" {
		t.Fatalf("logging mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsDefaultsForZeroFields(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Editor: EditorConfig{HistoryLimit: 5, CoalesceMs: 400}, Logging: LoggingConfig{Level: " DEBUG "}}
	mergeInto(&dst, &src)
	if dst.Editor.HistoryLimit != 5 || dst.Editor.CoalesceWindow() != 400*time.Millisecond {
		t.Fatalf("editor not merged: %#v", dst.Editor)
	}
	if dst.Editor.DuplicateOffsetX != 10 || dst.Editor.GridSize != 10 {
		t.Fatalf("editor defaults lost: %#v", dst.Editor)
	}
	if dst.Logging.Level != "debug" || dst.Logging.Format != "console" {
		t.Fatalf("logging merge: %#v", dst.Logging)
	}
	if dst.Backend.BaseURL != Defaults().Backend.BaseURL {
		t.Fatalf("backend default lost: %q", dst.Backend.BaseURL)
	}
}

func TestSaveAndLoadRoundTripWithToken(t *testing.T) {
	p := isolate(t)
	cfg := Defaults()
	cfg.General.ViewMode = "tablet"
	cfg.Storage.KeepRevisions = 7
	if err := Save(cfg, "secret-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok != "secret-token" || Token() != "secret-token" {
		t.Fatalf("token = %q", tok)
	}
	if got.General.ViewMode != "tablet" || got.Storage.KeepRevisions != 7 {
		t.Fatalf("round trip lost values: %#v", got)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if Token() != "" {
		t.Fatalf("token still present after ClearToken")
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("second ClearToken: %v", err)
	}
}

func TestBackendTimeoutFallback(t *testing.T) {
	if got := (BackendConfig{}).Timeout(); got != 15*time.Second {
		t.Fatalf("Timeout() = %v", got)
	}
	if got := (BackendConfig{TimeoutMs: 250}).Timeout(); got != 250*time.Millisecond {
		t.Fatalf("Timeout() = %v", got)
	}
	if (EditorConfig{}).CoalesceWindow() != 0 {
		t.Fatalf("zero coalesce window expected")
	}
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	p := isolate(t)
	if err := os.WriteFile(p, []byte("general: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.ViewMode != "desktop" {
		t.Fatalf("ViewMode = %q", cfg.General.ViewMode)
	}
}
