/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sitebuilder/internal/domain"

	_ "modernc.org/sqlite"
)

func TestIndexInitCreatesWALAndMetaVersion(t *testing.T) {
	root := t.TempDir()
	idb, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	_ = idb.Close()
	idxPath := IndexPath(root)
	if _, err := os.Stat(idxPath); err != nil {
		t.Fatalf("index file missing at %s: %v", idxPath, err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(idxPath))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 meta tables, got %d", cnt)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('elements','revisions','publications')").Scan(&cnt); err != nil {
		t.Fatalf("query core tables: %v", err)
	}
	if cnt != 3 {
		t.Fatalf("expected 3 core tables, got %d", cnt)
	}
}

func TestInitOrOpenIndexRequiresRoot(t *testing.T) {
	if _, err := InitOrOpenIndex(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestSyncElementsReplacesRows(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	mk := func(k domain.Kind) domain.Element {
		e, err := domain.NewElement(k)
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	first := []domain.Element{mk(domain.KindButton), mk(domain.KindButton), mk(domain.KindText)}
	if err := SyncElements(ctx, db, first); err != nil {
		t.Fatalf("SyncElements: %v", err)
	}
	counts, err := CountByKind(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.KindButton] != 2 || counts[domain.KindText] != 1 {
		t.Fatalf("counts = %v", counts)
	}

	if err := SyncElements(ctx, db, first[2:]); err != nil {
		t.Fatalf("SyncElements: %v", err)
	}
	counts, _ = CountByKind(ctx, db)
	if counts[domain.KindButton] != 0 || counts[domain.KindText] != 1 {
		t.Fatalf("counts after resync = %v", counts)
	}
	var ord int
	var id string
	if err := db.QueryRowContext(ctx, `SELECT id, ord FROM elements`).Scan(&id, &ord); err != nil {
		t.Fatal(err)
	}
	if id != first[2].ID || ord != 0 {
		t.Fatalf("row = %s/%d", id, ord)
	}
}
