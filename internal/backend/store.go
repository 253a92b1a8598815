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
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"sitebuilder/internal/domain"
	applog "sitebuilder/internal/log"
)

const (
	selectDesignSQL = `SELECT doc, version FROM designs WHERE name = $1`
	upsertDesignSQL = `INSERT INTO designs (name, doc, version, updated_at) VALUES ($1, $2, 1, now())
		ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, version = designs.version + 1, updated_at = now()
		RETURNING version`
	insertRevisionSQL    = `INSERT INTO design_revisions (design_name, version, doc) VALUES ($1, $2, $3)`
	pruneRevisionsSQL    = `DELETE FROM design_revisions WHERE design_name = $1 AND version <= $2`
	insertPublicationSQL = `INSERT INTO publications (design_name, elements, element_count) VALUES ($1, $2, $3) RETURNING id`
	latestPublicationSQL = `SELECT elements, published_at FROM publications WHERE design_name = $1 ORDER BY published_at DESC, id DESC LIMIT 1`
)

// PGStore keeps designs, their revisions and publications in Postgres.
type PGStore struct {
	pool DBPool
	// KeepRevisions bounds design_revisions per design (0 keeps all).
	KeepRevisions int
	log           *slog.Logger
}

// NewPGStore verifies the connection and returns a store.
func NewPGStore(ctx context.Context, pool DBPool, keepRevisions int) (*PGStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PGStore{pool: pool, KeepRevisions: keepRevisions, log: applog.WithComponent("backend.store")}, nil
}

func (s *PGStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// LoadDesign returns the named design; ok is false when it was never saved.
func (s *PGStore) LoadDesign(ctx context.Context, name string) (domain.Design, bool, error) {
	var doc []byte
	var version int64
	err := s.pool.QueryRow(ctx, selectDesignSQL, name).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Design{}, false, nil
	}
	if err != nil {
		return domain.Design{}, false, fmt.Errorf("select design: %w", err)
	}
	d, issues, err := domain.DecodeDesign(doc)
	if err != nil {
		return domain.Design{}, false, err
	}
	for _, issue := range issues {
		s.log.WarnContext(ctx, "stored design repaired", slog.String("design", name), slog.String("issue", issue))
	}
	return d, true, nil
}

// SaveDesign stores d as the next version of the named design and records a revision.
func (s *PGStore) SaveDesign(ctx context.Context, name string, d domain.Design) (int64, error) {
	doc, err := domain.EncodeDesign(d)
	if err != nil {
		return 0, fmt.Errorf("encode design: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.log.Debug("rollback after save", slog.Any("err", rbErr))
		}
	}()

	var version int64
	if err := tx.QueryRow(ctx, upsertDesignSQL, name, string(doc)).Scan(&version); err != nil {
		return 0, fmt.Errorf("upsert design: %w", err)
	}
	if _, err := tx.Exec(ctx, insertRevisionSQL, name, version, string(doc)); err != nil {
		return 0, fmt.Errorf("insert revision: %w", err)
	}
	if s.KeepRevisions > 0 && version > int64(s.KeepRevisions) {
		if _, err := tx.Exec(ctx, pruneRevisionsSQL, name, version-int64(s.KeepRevisions)); err != nil {
			return 0, fmt.Errorf("prune revisions: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return version, nil
}

// PublishDesign stores a publication of elems and returns its id.
func (s *PGStore) PublishDesign(ctx context.Context, name string, elems []domain.Element) (int64, error) {
	if elems == nil {
		elems = []domain.Element{}
	}
	b, err := json.Marshal(elems)
	if err != nil {
		return 0, fmt.Errorf("encode elements: %w", err)
	}
	var id int64
	if err := s.pool.QueryRow(ctx, insertPublicationSQL, name, string(b), len(elems)).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert publication: %w", err)
	}
	return id, nil
}

// LatestPublication returns the most recently published elements of the named design.
func (s *PGStore) LatestPublication(ctx context.Context, name string) ([]domain.Element, time.Time, bool, error) {
	var raw []byte
	var at time.Time
	err := s.pool.QueryRow(ctx, latestPublicationSQL, name).Scan(&raw, &at)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("select publication: %w", err)
	}
	var elems []domain.Element
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decode publication: %w", err)
	}
	return elems, at, true, nil
}
