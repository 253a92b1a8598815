/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package registry holds the canonical, insertion-ordered set of elements of a design.
// It is the source of truth for serialization; rendered surfaces are projections of it.
package registry

import (
	"sitebuilder/internal/domain"
)

// ErrUnknownKind is returned by Create for kinds outside the palette.
var ErrUnknownKind = domain.ErrUnknownKind

// Registry maps element ids to elements and remembers insertion order.
// It is not safe for concurrent use; a session owns exactly one.
type Registry struct {
	order []string
	byID  map[string]*domain.Element
}

func New() *Registry {
	return &Registry{byID: make(map[string]*domain.Element)}
}

// Create allocates a fresh element with the kind's defaults. It does not insert it.
func (r *Registry) Create(k domain.Kind) (domain.Element, error) {
	return domain.NewElement(k)
}

// Get returns a copy of the element with the given id.
func (r *Registry) Get(id string) (domain.Element, bool) {
	e, ok := r.byID[id]
	if !ok {
		return domain.Element{}, false
	}
	return e.Clone(), true
}

// Has reports whether id is present.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Put appends a new element or overwrites an existing one in place.
func (r *Registry) Put(e domain.Element) {
	c := e.Clone()
	if _, ok := r.byID[e.ID]; !ok {
		r.order = append(r.order, e.ID)
	}
	r.byID[e.ID] = &c
}

// InsertAt inserts the element at the given order position, clamped to [0, Len()].
// An element that is already present is overwritten in place instead.
func (r *Registry) InsertAt(index int, e domain.Element) {
	if _, ok := r.byID[e.ID]; ok {
		r.Put(e)
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(r.order) {
		index = len(r.order)
	}
	c := e.Clone()
	r.byID[e.ID] = &c
	r.order = append(r.order, "")
	copy(r.order[index+1:], r.order[index:])
	r.order[index] = e.ID
}

// IndexOf returns the order position of id, or -1.
func (r *Registry) IndexOf(id string) int {
	if _, ok := r.byID[id]; !ok {
		return -1
	}
	for i, v := range r.order {
		if v == id {
			return i
		}
	}
	return -1
}

// Remove deletes id. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Update applies fn to the stored element. It returns false when id is absent.
// The element's id and kind cannot be changed through fn.
func (r *Registry) Update(id string, fn func(*domain.Element)) bool {
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	kind := e.Kind
	fn(e)
	e.ID, e.Kind = id, kind
	return true
}

// Serialize returns copies of all elements in insertion order.
func (r *Registry) Serialize() []domain.Element {
	out := make([]domain.Element, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out
}

// Replace discards the current contents and loads elems in order. Later duplicates of an id overwrite earlier ones.
func (r *Registry) Replace(elems []domain.Element) {
	r.order = r.order[:0]
	r.byID = make(map[string]*domain.Element, len(elems))
	for _, e := range elems {
		r.Put(e)
	}
}

func (r *Registry) Len() int { return len(r.order) }
