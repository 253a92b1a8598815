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
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level grades a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-visible message that stays until dismissed.
type Notice struct {
	ID      string
	Level   Level
	Message string
	At      time.Time
}

// Notices is the session's notification centre. It is safe for concurrent use; background
// save and publish requests post to it.
type Notices struct {
	mu    sync.Mutex
	items []Notice
	now   func() time.Time
}

func NewNotices() *Notices { return &Notices{now: time.Now} }

// Post adds a notice and returns it.
func (n *Notices) Post(level Level, msg string) Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	nt := Notice{ID: uuid.NewString(), Level: level, Message: msg, At: n.now()}
	n.items = append(n.items, nt)
	return nt
}

// List returns the pending notices, oldest first.
func (n *Notices) List() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.items...)
}

// Dismiss removes a notice by id and reports whether it was pending.
func (n *Notices) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, it := range n.items {
		if it.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

func (n *Notices) Clear() {
	n.mu.Lock()
	n.items = nil
	n.mu.Unlock()
}
