/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"sitebuilder/internal/action"
)

// Config controls depth caps and coalescing behavior. The zero value disables both.
type Config struct {
	// MaxEntries caps the number of entries kept; the oldest are evicted first (0 means unlimited).
	MaxEntries int
	// CoalesceWindow merges a Modify into the previous entry when both target the same element and
	// property and were recorded within the window. The merged entry keeps the oldest previous value.
	CoalesceWindow time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type entry struct {
	act action.Action
	at  time.Time
}

// Log is a linear, cursor-addressed history of recorded actions.
//
// Entries at or before the cursor are applied; entries after it are pending redo and are discarded
// by the next Record. The cursor is -1 when nothing is applied. It is safe for concurrent use.
type Log struct {
	cfg     Config
	mu      sync.Mutex
	entries []entry
	index   int
}

func NewLog(cfg Config) *Log {
	if cfg.MaxEntries < 0 {
		cfg.MaxEntries = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Log{cfg: cfg, index: -1}
}

// Record truncates any pending-redo tail, appends a, and advances the cursor.
// It reports whether a was merged into the previous entry instead of appended.
func (l *Log) Record(a action.Action) (merged bool, err error) {
	if err := validate(a); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:l.index+1]
	now := l.cfg.Now()
	if n := len(l.entries); n > 0 && l.cfg.CoalesceWindow > 0 {
		last := &l.entries[n-1]
		if m, ok := coalesce(last.act, a); ok && now.Sub(last.at) < l.cfg.CoalesceWindow {
			last.act = m
			last.at = now
			return true, nil
		}
	}
	l.entries = append(l.entries, entry{act: a, at: now})
	l.index = len(l.entries) - 1
	l.enforceCapLocked()
	return false, nil
}

func validate(a action.Action) error {
	if a == nil {
		return action.ErrInvalidAction
	}
	return a.Validate()
}

// coalesce merges next into prev when both modify the same property of the same element.
func coalesce(prev, next action.Action) (action.Action, bool) {
	p, ok := prev.(action.Modify)
	if !ok {
		return nil, false
	}
	n, ok := next.(action.Modify)
	if !ok || p.ElementID != n.ElementID || p.Property != n.Property {
		return nil, false
	}
	return action.Modify{ElementID: p.ElementID, Property: p.Property, PreviousValue: p.PreviousValue, NewValue: n.NewValue}, true
}

func (l *Log) enforceCapLocked() {
	if l.cfg.MaxEntries <= 0 || len(l.entries) <= l.cfg.MaxEntries {
		return
	}
	drop := len(l.entries) - l.cfg.MaxEntries
	l.entries = append([]entry{}, l.entries[drop:]...)
	l.index -= drop
	if l.index < -1 {
		l.index = -1
	}
}

// Undo returns the action at the cursor and steps the cursor back.
// The caller reverts the returned action.
func (l *Log) Undo() (action.Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index < 0 {
		return nil, false
	}
	a := l.entries[l.index].act
	l.index--
	return a, true
}

// Redo steps the cursor forward and returns the action now at the cursor.
// The caller re-applies the returned action.
func (l *Log) Redo() (action.Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index >= len(l.entries)-1 {
		return nil, false
	}
	l.index++
	return l.entries[l.index].act, true
}

// Reset empties the log.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.index = -1
}

// Restore replaces the log with actions and places the cursor at index, clamped to [-1, len-1].
// Restored entries are never coalesced with later records.
func (l *Log) Restore(actions []action.Action, index int) error {
	for _, a := range actions {
		if err := validate(a); err != nil {
			return err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]entry, len(actions))
	for i, a := range actions {
		l.entries[i] = entry{act: a}
	}
	switch {
	case index < -1:
		index = -1
	case index > len(actions)-1:
		index = len(actions) - 1
	}
	l.index = index
	l.capRestoredLocked()
	return nil
}

// capRestoredLocked applies MaxEntries to a restored log. Applied entries are evicted oldest
// first as Record does; when the cursor sits too far back, the redo tail is shortened instead,
// since a redo entry must never follow an evicted one.
func (l *Log) capRestoredLocked() {
	excess := len(l.entries) - l.cfg.MaxEntries
	if l.cfg.MaxEntries <= 0 || excess <= 0 {
		return
	}
	front := min(excess, l.index+1)
	l.entries = append([]entry{}, l.entries[front:]...)
	l.index -= front
	l.entries = l.entries[:l.cfg.MaxEntries]
}

// Entries returns all entries, including any pending-redo tail.
func (l *Log) Entries() []action.Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]action.Action, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.act
	}
	return out
}

// Index returns the cursor.
func (l *Log) Index() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) CanUndo() bool { return l.Index() >= 0 }

func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index < len(l.entries)-1
}
