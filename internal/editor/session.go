/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor implements the editing session: it turns canvas interactions into recorded
// actions, keeps the registry and the rendered surface in step, and drives undo/redo and
// persistence.
//
// A Session has a single mutator. Handlers, Undo/Redo and Load must be called from one goroutine
// (the CLI loop or the UI thread); Save and Publish hand a snapshot to a background goroutine and
// return immediately.
package editor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"sitebuilder/internal/action"
	"sitebuilder/internal/command"
	"sitebuilder/internal/domain"
	applog "sitebuilder/internal/log"
	"sitebuilder/internal/registry"
	"sitebuilder/internal/surface"
	"sitebuilder/internal/undo"
)

// ErrElementNotFound is returned by handlers called with an id that is not in the registry.
var ErrElementNotFound = command.ErrElementNotFound

// Options configures a Session. The zero value yields a session without persistence that renders nowhere.
type Options struct {
	Gateway Gateway
	Surface surface.Surface
	Logger  *slog.Logger
	History undo.Config
	// DuplicateOffset is added to the source position of a duplicated element.
	DuplicateOffset domain.Position
	// GridSize and SnapToGrid control where dropped elements land.
	GridSize   int
	SnapToGrid bool
	ViewMode   domain.ViewMode
}

// DefaultDuplicateOffset is used when Options.DuplicateOffset is zero.
var DefaultDuplicateOffset = domain.Position{X: 10, Y: 10}

type drag struct {
	id     string
	origin domain.Position
}

type Session struct {
	id       string
	reg      *registry.Registry
	history  *undo.Log
	exec     *command.Executor
	surf     surface.Surface
	gw       Gateway
	notices  *Notices
	log      *slog.Logger
	selected string
	drag     *drag
	viewMode domain.ViewMode
	offset   domain.Position
	grid     int
	snap     bool
	inflight sync.WaitGroup
	// writes chains gateway calls so they reach the gateway in submission order.
	writesMu sync.Mutex
	writes   chan struct{}
}

func New(opts Options) *Session {
	id := uuid.NewString()
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("editor")
	}
	l = l.With(slog.String("session", id))
	surf := opts.Surface
	if surf == nil {
		surf = surface.Discard
	}
	offset := opts.DuplicateOffset
	if offset == (domain.Position{}) {
		offset = DefaultDuplicateOffset
	}
	mode := domain.DefaultViewMode
	if m, err := domain.ParseViewMode(string(opts.ViewMode)); err == nil {
		mode = m
	}
	return &Session{
		id:       id,
		reg:      registry.New(),
		history:  undo.NewLog(opts.History),
		exec:     command.NewExecutor(l),
		surf:     surf,
		gw:       opts.Gateway,
		notices:  NewNotices(),
		log:      l,
		viewMode: mode,
		offset:   offset,
		grid:     opts.GridSize,
		snap:     opts.SnapToGrid,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) Notices() *Notices { return s.notices }

// Elements returns the registry contents in order.
func (s *Session) Elements() []domain.Element { return s.reg.Serialize() }

// Element returns one element by id.
func (s *Session) Element(id string) (domain.Element, bool) { return s.reg.Get(id) }

// History returns every recorded action, including the pending-redo tail, and the cursor.
func (s *Session) History() ([]action.Action, int) { return s.history.Entries(), s.history.Index() }

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// record appends a to the history and applies it. Handlers validate their target before calling it.
func (s *Session) record(a action.Action) error {
	merged, err := s.history.Record(a)
	if err != nil {
		return err
	}
	s.log.Debug("recorded", slog.String("action", action.Describe(a)), slog.Bool("merged", merged))
	return s.exec.Apply(a, s.reg, s.surf)
}

func (s *Session) snapToGrid(p domain.Position) domain.Position {
	if !s.snap || s.grid <= 1 {
		return p
	}
	round := func(v int) int {
		r := v % s.grid
		if r < 0 {
			r += s.grid
		}
		if r*2 >= s.grid {
			return v - r + s.grid
		}
		return v - r
	}
	return domain.Position{X: round(p.X), Y: round(p.Y)}
}

func (s *Session) lookup(id string) (domain.Element, error) {
	e, ok := s.reg.Get(id)
	if !ok {
		return domain.Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	return e, nil
}

// OnDropCreate places a new element of kind k at p.
func (s *Session) OnDropCreate(k domain.Kind, p domain.Position) (domain.Element, error) {
	e, err := s.reg.Create(k)
	if err != nil {
		return domain.Element{}, err
	}
	e.Position = s.snapToGrid(p)
	if err := s.record(action.Add{Element: e}); err != nil {
		return domain.Element{}, err
	}
	return e, nil
}

// OnDragStart remembers the element's position so the drag can be recorded as one move.
func (s *Session) OnDragStart(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.drag = &drag{id: id, origin: e.Position}
	return nil
}

// OnDragMove follows the pointer on the surface only; nothing is recorded until the drag ends.
func (s *Session) OnDragMove(id string, p domain.Position) error {
	if s.drag == nil || s.drag.id != id {
		return fmt.Errorf("no drag in progress for %s", id)
	}
	s.surf.Reposition(id, p)
	return nil
}

// OnDragEnd records a move from the drag-start position to p. A drag that ends where it started is
// not recorded. Without a preceding OnDragStart the element's current position is the origin.
func (s *Session) OnDragEnd(id string, p domain.Position) (bool, error) {
	d := s.drag
	s.drag = nil
	e, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	from := e.Position
	if d != nil && d.id == id {
		from = d.origin
	}
	if from == p {
		s.surf.Reposition(id, p)
		return false, nil
	}
	if err := s.record(action.Move{ElementID: id, From: from, To: p}); err != nil {
		return false, err
	}
	return true, nil
}

// OnPropertyChange sets a property from raw panel input. It reports whether an edit was recorded;
// input that normalizes to the current value records nothing.
func (s *Session) OnPropertyChange(id string, p domain.Property, raw string) (bool, error) {
	e, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	prev, err := command.PropertyValue(e, p)
	if err != nil {
		return false, err
	}
	next, err := command.NormalizeValue(p, raw)
	if err != nil {
		return false, err
	}
	if prev == next {
		return false, nil
	}
	if err := s.record(action.Modify{ElementID: id, Property: p, PreviousValue: prev, NewValue: next}); err != nil {
		return false, err
	}
	return true, nil
}

// OnDelete removes an element, keeping a snapshot and its position in order for undo.
func (s *Session) OnDelete(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := s.record(action.Delete{ElementID: id, Snapshot: e, Index: s.reg.IndexOf(id)}); err != nil {
		return err
	}
	s.dropStaleState()
	return nil
}

// OnDuplicate copies an element under a new id, offset from the source.
func (s *Session) OnDuplicate(id string) (domain.Element, error) {
	src, err := s.lookup(id)
	if err != nil {
		return domain.Element{}, err
	}
	c := src.Clone()
	c.ID = domain.NewID(src.Kind)
	c.Position = domain.Position{X: src.Position.X + s.offset.X, Y: src.Position.Y + s.offset.Y}
	if err := s.record(action.Duplicate{SourceID: id, Element: c}); err != nil {
		return domain.Element{}, err
	}
	return c, nil
}

// Undo reverts the action at the cursor and rebuilds the surface. A reverted action whose target is
// gone is skipped with a warning; the cursor moves regardless.
func (s *Session) Undo() bool {
	a, ok := s.history.Undo()
	if !ok {
		return false
	}
	if err := s.exec.Revert(a, s.reg, surface.Discard); err != nil {
		s.log.Warn("undo skipped", slog.String("action", action.Describe(a)), slog.Any("err", err))
	}
	s.RebuildSurface()
	s.dropStaleState()
	return true
}

// Redo re-applies the next action and rebuilds the surface.
func (s *Session) Redo() bool {
	a, ok := s.history.Redo()
	if !ok {
		return false
	}
	if err := s.exec.Apply(a, s.reg, surface.Discard); err != nil {
		s.log.Warn("redo skipped", slog.String("action", action.Describe(a)), slog.Any("err", err))
	}
	s.RebuildSurface()
	s.dropStaleState()
	return true
}

// RebuildSurface redraws the surface from the registry.
func (s *Session) RebuildSurface() {
	s.surf.Clear()
	for _, e := range s.reg.Serialize() {
		s.surf.Insert(e)
	}
}

func (s *Session) dropStaleState() {
	if s.selected != "" && !s.reg.Has(s.selected) {
		s.selected = ""
	}
	if s.drag != nil && !s.reg.Has(s.drag.id) {
		s.drag = nil
	}
}

// Select makes id the selected element.
func (s *Session) Select(id string) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.selected = id
	return nil
}

// Selected returns the selected element id.
func (s *Session) Selected() (string, bool) { return s.selected, s.selected != "" }

func (s *Session) ClearSelection() { s.selected = "" }

func (s *Session) ViewMode() domain.ViewMode { return s.viewMode }

// SetViewMode switches the preview device. It is not recorded in the history.
func (s *Session) SetViewMode(m domain.ViewMode) error {
	v, err := domain.ParseViewMode(string(m))
	if err != nil {
		return err
	}
	s.viewMode = v
	return nil
}
