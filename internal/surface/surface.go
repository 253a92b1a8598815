/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package surface defines the rendered projection of a design and the implementations the editor
// can drive: an HTML node tree, an in-memory recorder and a no-op surface.
package surface

import (
	"sitebuilder/internal/domain"
)

// Surface is the rendered view of the registry. Only the editor session mutates it.
// Operations on unknown ids are ignored.
type Surface interface {
	// Insert renders e at the end of the canvas, replacing any node with the same id.
	Insert(e domain.Element)
	Remove(id string)
	Reposition(id string, p domain.Position)
	// Patch re-renders the attributes and content of an existing node from e.
	Patch(e domain.Element)
	Clear()
}

// Discard is a Surface that renders nothing.
var Discard Surface = discard{}

type discard struct{}

func (discard) Insert(domain.Element)              {}
func (discard) Remove(string)                      {}
func (discard) Reposition(string, domain.Position) {}
func (discard) Patch(domain.Element)               {}
func (discard) Clear()                             {}
