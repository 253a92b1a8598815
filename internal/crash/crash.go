/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"sitebuilder/internal/domain"
	applog "sitebuilder/internal/log"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/telemetry"
	"sitebuilder/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// SnapshotFunc returns the design to autosave after a panic.
type SnapshotFunc func() (domain.Design, error)

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts a crash-safe autosave
// of the current design (if snapshot is provided).
//
// Usage: defer crash.Recover(root, session.Snapshot)
func Recover(root string, snapshot SnapshotFunc) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(root, r, stack)
		if root != "" && snapshot != nil {
			autosave(l, root, snapshot)
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

// autosave must not panic again: the snapshot reads editor state that may be inconsistent.
func autosave(l *slog.Logger, root string, snapshot SnapshotFunc) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("design snapshot panicked", slog.Any("panic", r))
		}
	}()
	d, err := snapshot()
	if err != nil {
		l.Error("design snapshot failed", slog.Any("err", err))
		return
	}
	path, err := storage.AutosaveCrashSnapshot(root, d)
	if err != nil {
		l.Error("autosave crash snapshot failed", slog.Any("err", err))
		return
	}
	l.Info("autosave crash snapshot written", slog.String("path", path))
}

func writeReport(root string, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if root != "" {
		dir = filepath.Join(root, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	fname := fmt.Sprintf("crash-%s.log", stamp)
	path := filepath.Join(dir, fname)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "SiteBuilder Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if root != "" {
		_, _ = fmt.Fprintf(&buf, "DesignRoot: %s\n", root)
		_, _ = fmt.Fprintf(&buf, "Manifest: %s\n", filepath.Join(root, storage.ManifestFileName))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// optionally upload anonymized crash report (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
