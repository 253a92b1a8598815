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
	"errors"
	"fmt"
	"time"

	"sitebuilder/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(ts, element_count, history_len, cursor, view_mode, bytes, design_blob) VALUES (?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT id, ts, element_count, history_len, cursor, view_mode, bytes FROM revisions ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const selectRevisionSQL = `SELECT design_blob FROM revisions WHERE id = ?`

// language=SQL
// dialect=SQLite
const pruneOldRevisionsSQL = `DELETE FROM revisions WHERE id NOT IN (
	SELECT id FROM revisions ORDER BY ts DESC, id DESC LIMIT ?
)`

// language=SQL
// dialect=SQLite
const insertPublicationSQL = `INSERT INTO publications(ts, element_count, path) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const listPublicationsSQL = `SELECT id, ts, element_count, path FROM publications ORDER BY ts DESC, id DESC LIMIT ?`

// Revision summarizes one saved design.
type Revision struct {
	ID       int64
	TS       time.Time
	Elements int
	History  int
	Cursor   int
	ViewMode domain.ViewMode
	Bytes    int
}

// Publication records one publish.
type Publication struct {
	ID       int64
	TS       time.Time
	Elements int
	Path     string
}

// RecordRevision stores the full design as a new revision.
func RecordRevision(ctx context.Context, db *sql.DB, d domain.Design, ts time.Time) (int64, error) {
	blob, err := domain.EncodeDesign(d)
	if err != nil {
		return 0, fmt.Errorf("encode revision: %w", err)
	}
	res, err := db.ExecContext(ctx, insertRevisionSQL, ts.UTC().Format(time.RFC3339Nano),
		len(d.Elements), len(d.History), d.Cursor(), string(d.ViewMode), len(blob), blob)
	if err != nil {
		return 0, fmt.Errorf("insert revision: %w", err)
	}
	return res.LastInsertId()
}

// ListRevisions returns up to limit revisions, newest first.
func ListRevisions(ctx context.Context, db *sql.DB, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, listRevisionsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var r Revision
		var tsStr, mode string
		if err := rows.Scan(&r.ID, &tsStr, &r.Elements, &r.History, &r.Cursor, &mode, &r.Bytes); err != nil {
			return nil, err
		}
		r.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
		r.ViewMode = domain.ViewMode(mode)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRevision decodes the design stored under id. ok is false when no such revision exists.
func LoadRevision(ctx context.Context, db *sql.DB, id int64) (domain.Design, bool, error) {
	var blob []byte
	err := db.QueryRowContext(ctx, selectRevisionSQL, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Design{}, false, nil
	}
	if err != nil {
		return domain.Design{}, false, err
	}
	d, _, err := domain.DecodeDesign(blob)
	if err != nil {
		return domain.Design{}, false, err
	}
	return d, true, nil
}

// PruneRevisions keeps at most keepLast revisions and deletes older ones.
func PruneRevisions(ctx context.Context, db *sql.DB, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, pruneOldRevisionsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordPublication notes that elements were published to path.
func RecordPublication(ctx context.Context, db *sql.DB, elements int, path string, ts time.Time) error {
	_, err := db.ExecContext(ctx, insertPublicationSQL, ts.UTC().Format(time.RFC3339Nano), elements, path)
	return err
}

// ListPublications returns up to limit publications, newest first.
func ListPublications(ctx context.Context, db *sql.DB, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, listPublicationsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Publication
	for rows.Next() {
		var p Publication
		var tsStr string
		if err := rows.Scan(&p.ID, &tsStr, &p.Elements, &p.Path); err != nil {
			return nil, err
		}
		p.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, p)
	}
	return out, rows.Err()
}
