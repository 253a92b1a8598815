/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"
	"log/slog"

	"sitebuilder/internal/action"
	"sitebuilder/internal/domain"
	applog "sitebuilder/internal/log"
)

// Snapshot encodes the current session as a persistable design.
func (s *Session) Snapshot() (domain.Design, error) {
	records, err := action.EncodeAll(s.history.Entries())
	if err != nil {
		return domain.Design{}, fmt.Errorf("snapshot history: %w", err)
	}
	d := domain.Design{Elements: s.reg.Serialize(), History: records, ViewMode: s.viewMode}
	if idx := s.history.Index(); idx != len(records)-1 {
		d.HistoryIndex = &idx
	}
	return d, nil
}

// Load replaces the session state with the gateway's design. Malformed parts default independently;
// an undecodable history leaves an empty log. On failure the current state is kept and a notice is posted.
func (s *Session) Load(ctx context.Context) error {
	if s.gw == nil {
		return ErrNoGateway
	}
	ctx = applog.ContextWithSession(ctx, s.id)
	d, ok, err := s.gw.LoadDesign(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "load failed", slog.Any("err", err))
		s.notices.Post(LevelError, "Could not load the design: "+err.Error())
		return fmt.Errorf("load design: %w", err)
	}
	if !ok {
		d = domain.Design{}
	}
	s.apply(ctx, d)
	s.log.InfoContext(ctx, "design loaded",
		slog.Bool("found", ok),
		slog.Int("elements", s.reg.Len()),
		slog.Int("history", s.history.Len()),
		slog.Int("cursor", s.history.Index()))
	return nil
}

// Restore replaces the session state with d directly, as Load does after fetching it.
func (s *Session) Restore(d domain.Design) {
	s.apply(applog.ContextWithSession(context.Background(), s.id), d)
}

func (s *Session) apply(ctx context.Context, d domain.Design) {
	d = d.Clone()
	for _, issue := range d.Normalize() {
		s.log.WarnContext(ctx, "design repaired", slog.String("issue", issue))
	}
	s.reg.Replace(d.Elements)
	s.viewMode = d.ViewMode
	s.selected = ""
	s.drag = nil

	actions, err := action.DecodeAll(d.History)
	if err == nil {
		err = s.history.Restore(actions, d.Cursor())
	}
	if err != nil {
		s.log.WarnContext(ctx, "history discarded", slog.Any("err", err))
		s.notices.Post(LevelWarning, "The saved edit history could not be read; undo starts fresh.")
		s.history.Reset()
	}
	s.RebuildSurface()
}

// Save snapshots the session now and stores it in the background. The returned channel yields the
// outcome once and is then closed. Edits made after Save returns are not part of the saved design.
// Saves and publishes reach the gateway one at a time, in call order.
func (s *Session) Save(ctx context.Context) <-chan error {
	d, err := s.Snapshot()
	if err != nil {
		return s.fail(ctx, "save", err)
	}
	return s.background(ctx, "save", func(ctx context.Context) error { return s.gw.SaveDesign(ctx, d) },
		slog.Int("elements", len(d.Elements)), slog.Int("history", len(d.History)))
}

// Publish sends the current elements to the gateway in the background. History is not published.
func (s *Session) Publish(ctx context.Context) <-chan error {
	elems := s.reg.Serialize()
	return s.background(ctx, "publish", func(ctx context.Context) error { return s.gw.PublishDesign(ctx, elems) },
		slog.Int("elements", len(elems)))
}

func (s *Session) background(ctx context.Context, op string, call func(context.Context) error, attrs ...any) <-chan error {
	if s.gw == nil {
		return s.fail(ctx, op, ErrNoGateway)
	}
	ctx = applog.ContextWithSession(ctx, s.id)
	s.writesMu.Lock()
	prev, done := s.writes, make(chan struct{})
	s.writes = done
	s.writesMu.Unlock()

	ch := make(chan error, 1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer close(ch)
		defer close(done)
		if prev != nil {
			<-prev
		}
		err := call(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, op+" failed", append(attrs, slog.Any("err", err))...)
			s.notices.Post(LevelError, fmt.Sprintf("Could not %s the design: %v", op, err))
			ch <- fmt.Errorf("%s design: %w", op, err)
			return
		}
		s.log.InfoContext(ctx, op+" completed", attrs...)
		ch <- nil
	}()
	return ch
}

func (s *Session) fail(ctx context.Context, op string, err error) <-chan error {
	s.log.ErrorContext(ctx, op+" failed", slog.Any("err", err))
	s.notices.Post(LevelError, fmt.Sprintf("Could not %s the design: %v", op, err))
	ch := make(chan error, 1)
	ch <- fmt.Errorf("%s design: %w", op, err)
	close(ch)
	return ch
}

// Wait blocks until every in-flight save and publish has finished.
func (s *Session) Wait() { s.inflight.Wait() }
