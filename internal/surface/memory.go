/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package surface

import (
	"fmt"

	"sitebuilder/internal/domain"
)

// Memory keeps rendered elements in draw order and records every operation it receives.
// It is used by headless sessions and by tests that compare the surface with the registry.
type Memory struct {
	order []string
	elems map[string]domain.Element
	Ops   []string
}

func NewMemory() *Memory {
	return &Memory{elems: make(map[string]domain.Element)}
}

func (m *Memory) Insert(e domain.Element) {
	m.Ops = append(m.Ops, "insert "+e.ID)
	if _, ok := m.elems[e.ID]; ok {
		m.drop(e.ID)
	}
	m.order = append(m.order, e.ID)
	m.elems[e.ID] = e.Clone()
}

func (m *Memory) Remove(id string) {
	m.Ops = append(m.Ops, "remove "+id)
	if _, ok := m.elems[id]; ok {
		m.drop(id)
	}
}

func (m *Memory) Reposition(id string, p domain.Position) {
	m.Ops = append(m.Ops, fmt.Sprintf("reposition %s %s", id, p))
	if e, ok := m.elems[id]; ok {
		e.Position = p
		m.elems[id] = e
	}
}

func (m *Memory) Patch(e domain.Element) {
	m.Ops = append(m.Ops, "patch "+e.ID)
	if _, ok := m.elems[e.ID]; ok {
		m.elems[e.ID] = e.Clone()
	}
}

func (m *Memory) Clear() {
	m.Ops = append(m.Ops, "clear")
	m.order = nil
	m.elems = make(map[string]domain.Element)
}

// Elements returns the rendered elements in draw order.
func (m *Memory) Elements() []domain.Element {
	out := make([]domain.Element, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.elems[id].Clone())
	}
	return out
}

// ResetOps forgets the recorded operations.
func (m *Memory) ResetOps() { m.Ops = nil }

func (m *Memory) drop(id string) {
	delete(m.elems, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
