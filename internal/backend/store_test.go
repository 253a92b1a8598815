/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pashagolub/pgxmock/v2"
	"sitebuilder/internal/domain"
)

func newMockStore(t *testing.T, keep int) (*PGStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	s, err := NewPGStore(context.Background(), mock, keep)
	if err != nil {
		t.Fatalf("NewPGStore: %v", err)
	}
	return s, mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestPGStoreLoadDesign(t *testing.T) {
	s, mock := newMockStore(t, 0)
	e, _ := domain.NewElement(domain.KindText)
	want := domain.Design{Elements: []domain.Element{e}, History: []string{}, ViewMode: domain.ViewDesktop}
	doc, _ := domain.EncodeDesign(want)

	mock.ExpectQuery(q(selectDesignSQL)).WithArgs("home").
		WillReturnRows(pgxmock.NewRows([]string{"doc", "version"}).AddRow(doc, int64(3)))
	mock.ExpectQuery(q(selectDesignSQL)).WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"doc", "version"}))

	got, ok, err := s.LoadDesign(context.Background(), "home")
	if err != nil || !ok {
		t.Fatalf("LoadDesign: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if _, ok, err := s.LoadDesign(context.Background(), "missing"); err != nil || ok {
		t.Fatalf("missing design: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreSaveDesignPrunesRevisions(t *testing.T) {
	s, mock := newMockStore(t, 2)
	mock.ExpectBegin()
	mock.ExpectQuery(q(upsertDesignSQL)).WithArgs("home", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(5)))
	mock.ExpectExec(q(insertRevisionSQL)).WithArgs("home", int64(5), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(pruneRevisionsSQL)).WithArgs("home", int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	ver, err := s.SaveDesign(context.Background(), "home", domain.Design{ViewMode: domain.ViewDesktop})
	if err != nil {
		t.Fatalf("SaveDesign: %v", err)
	}
	if ver != 5 {
		t.Fatalf("version = %d", ver)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreSaveDesignRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t, 0)
	boom := errors.New("constraint violated")
	mock.ExpectBegin()
	mock.ExpectQuery(q(upsertDesignSQL)).WithArgs("home", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(1)))
	mock.ExpectExec(q(insertRevisionSQL)).WithArgs("home", int64(1), pgxmock.AnyArg()).
		WillReturnError(boom)
	mock.ExpectRollback()

	if _, err := s.SaveDesign(context.Background(), "home", domain.Design{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStorePublishAndLatest(t *testing.T) {
	s, mock := newMockStore(t, 0)
	a, _ := domain.NewElement(domain.KindButton)
	elems := []domain.Element{a}
	raw, _ := json.Marshal(elems)
	at := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(insertPublicationSQL)).WithArgs("home", string(raw), 1).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectQuery(q(latestPublicationSQL)).WithArgs("home").
		WillReturnRows(pgxmock.NewRows([]string{"elements", "published_at"}).AddRow(raw, at))

	id, err := s.PublishDesign(context.Background(), "home", elems)
	if err != nil || id != 9 {
		t.Fatalf("PublishDesign = %d, %v", id, err)
	}
	got, gotAt, ok, err := s.LatestPublication(context.Background(), "home")
	if err != nil || !ok {
		t.Fatalf("LatestPublication: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(elems, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if !gotAt.Equal(at) {
		t.Fatalf("published_at = %v", gotAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyMigrationsSkipsApplied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectExec(q(createMigrationsTableSQL)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery(q(selectMigrationsSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(1)))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS design_revisions").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(q(insertMigrationSQL)).WithArgs(int64(2), "0002_revisions.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := applyMigrations(context.Background(), mock); err != nil {
		t.Fatalf("applyMigrations: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrationFilesAreOrderedAndVersioned(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"0001_designs.sql", "0002_revisions.sql"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("migrations (-want +got):\n%s", diff)
	}
	for i, f := range files {
		v, err := parseVersion(f)
		if err != nil || v != int64(i+1) {
			t.Fatalf("parseVersion(%s) = %d, %v", f, v, err)
		}
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatalf("expected error for unversioned file")
	}
}
