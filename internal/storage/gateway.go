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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"sitebuilder/internal/domain"
	applog "sitebuilder/internal/log"
)

// FileGateway persists a design in a directory: design.json plus the embedded index.
// It is safe for concurrent use as long as callers do not save the same root from two processes.
type FileGateway struct {
	Root string
	// KeepRevisions bounds the revisions and manifest backups kept (0 keeps all).
	KeepRevisions int
	now           func() time.Time
	log           *slog.Logger
}

func NewFileGateway(root string, keepRevisions int) *FileGateway {
	return &FileGateway{
		Root:          root,
		KeepRevisions: keepRevisions,
		now:           time.Now,
		log:           applog.WithComponent("storage").With(slog.String("root", root)),
	}
}

// LoadDesign reads design.json, falling back to the newest readable backup.
func (g *FileGateway) LoadDesign(ctx context.Context) (domain.Design, bool, error) {
	ph, err := Open(g.Root)
	if errors.Is(err, ErrNoDesign) {
		return domain.Design{}, false, nil
	}
	if err != nil {
		return domain.Design{}, false, err
	}
	for _, issue := range ph.Issues {
		g.log.WarnContext(ctx, "design repaired on load", slog.String("issue", issue))
	}
	return ph.Design, true, nil
}

// SaveDesign writes design.json, then records a revision and refreshes the element index.
// Index failures are logged and do not fail the save; design.json is authoritative.
func (g *FileGateway) SaveDesign(ctx context.Context, d domain.Design) error {
	if err := scaffold(g.Root); err != nil {
		return err
	}
	ph := &DesignHandle{Root: g.Root, ManifestPath: filepath.Join(g.Root, ManifestFileName), Design: d}
	if err := Save(ph); err != nil {
		return err
	}
	if _, err := PruneBackups(g.Root, g.KeepRevisions); err != nil {
		g.log.WarnContext(ctx, "prune backups failed", slog.Any("err", err))
	}
	if err := g.index(ctx, func(ctx context.Context, db *sql.DB) error {
		if _, err := RecordRevision(ctx, db, d, g.now()); err != nil {
			return err
		}
		if _, err := PruneRevisions(ctx, db, g.KeepRevisions); err != nil {
			return err
		}
		return SyncElements(ctx, db, d.Elements)
	}); err != nil {
		g.log.WarnContext(ctx, "index update failed", slog.Any("err", err))
	}
	return nil
}

// PublishDesign writes published/elements.json and records the publication.
func (g *FileGateway) PublishDesign(ctx context.Context, elems []domain.Element) error {
	if elems == nil {
		elems = []domain.Element{}
	}
	data, err := json.MarshalIndent(elems, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal published elements: %w", err)
	}
	path := PublishedPath(g.Root)
	if err := replaceFile(path, append(data, '\n')); err != nil {
		return fmt.Errorf("write published elements: %w", err)
	}
	if err := g.index(ctx, func(ctx context.Context, db *sql.DB) error {
		return RecordPublication(ctx, db, len(elems), path, g.now())
	}); err != nil {
		g.log.WarnContext(ctx, "index update failed", slog.Any("err", err))
	}
	return nil
}

// PublishedPath is where PublishDesign writes the element list.
func PublishedPath(root string) string {
	return filepath.Join(root, PublishedDirName, PublishedFileName)
}

// index runs fn against the design's index database.
func (g *FileGateway) index(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	db, err := InitOrOpenIndex(g.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(ctx, db)
}

// Summary is what the index knows about a design directory.
type Summary struct {
	Counts       map[domain.Kind]int
	Revisions    []Revision
	Publications []Publication
}

// Summary reads element counts and the newest revisions and publications from the index.
func (g *FileGateway) Summary(ctx context.Context, limit int) (Summary, error) {
	var s Summary
	err := g.index(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		if s.Counts, err = CountByKind(ctx, db); err != nil {
			return err
		}
		if s.Revisions, err = ListRevisions(ctx, db, limit); err != nil {
			return err
		}
		s.Publications, err = ListPublications(ctx, db, limit)
		return err
	})
	return s, err
}
