/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package command applies and reverts recorded actions against the registry and a surface.
package command

import (
	"errors"
	"fmt"
	"log/slog"

	"sitebuilder/internal/action"
	"sitebuilder/internal/domain"
	applog "sitebuilder/internal/log"
	"sitebuilder/internal/registry"
	"sitebuilder/internal/surface"
)

// ErrElementNotFound is returned when an action targets an element missing from the registry.
var ErrElementNotFound = errors.New("element not found")

// Executor applies actions forward and backward. On a missing target it logs a warning and leaves
// both the registry and the surface untouched.
type Executor struct {
	log *slog.Logger
}

func NewExecutor(l *slog.Logger) *Executor {
	if l == nil {
		l = applog.WithComponent("command")
	}
	return &Executor{log: l}
}

// Apply performs the forward effect of a.
func (x *Executor) Apply(a action.Action, reg *registry.Registry, surf surface.Surface) error {
	switch v := a.(type) {
	case action.Add:
		reg.Put(v.Element)
		surf.Insert(v.Element)
	case action.Delete:
		if !reg.Has(v.ElementID) {
			return x.notFound("apply", a)
		}
		reg.Remove(v.ElementID)
		surf.Remove(v.ElementID)
	case action.Move:
		return x.move(a, "apply", v.ElementID, v.To, reg, surf)
	case action.Modify:
		return x.modify(a, "apply", v.ElementID, v.Property, v.NewValue, reg, surf)
	case action.Duplicate:
		reg.Put(v.Element)
		surf.Insert(v.Element)
	default:
		return fmt.Errorf("%w: unsupported %T", action.ErrInvalidAction, a)
	}
	return nil
}

// Revert undoes the effect of a using its captured inverse data.
func (x *Executor) Revert(a action.Action, reg *registry.Registry, surf surface.Surface) error {
	switch v := a.(type) {
	case action.Add:
		return x.remove(a, v.Element.ID, reg, surf)
	case action.Delete:
		reg.InsertAt(v.Index, v.Snapshot)
		surf.Insert(v.Snapshot)
	case action.Move:
		return x.move(a, "revert", v.ElementID, v.From, reg, surf)
	case action.Modify:
		return x.modify(a, "revert", v.ElementID, v.Property, v.PreviousValue, reg, surf)
	case action.Duplicate:
		return x.remove(a, v.Element.ID, reg, surf)
	default:
		return fmt.Errorf("%w: unsupported %T", action.ErrInvalidAction, a)
	}
	return nil
}

func (x *Executor) remove(a action.Action, id string, reg *registry.Registry, surf surface.Surface) error {
	if !reg.Has(id) {
		return x.notFound("revert", a)
	}
	reg.Remove(id)
	surf.Remove(id)
	return nil
}

func (x *Executor) move(a action.Action, op, id string, to domain.Position, reg *registry.Registry, surf surface.Surface) error {
	if !reg.Update(id, func(e *domain.Element) { e.Position = to }) {
		return x.notFound(op, a)
	}
	surf.Reposition(id, to)
	return nil
}

func (x *Executor) modify(a action.Action, op, id string, p domain.Property, v string, reg *registry.Registry, surf surface.Surface) error {
	e, ok := reg.Get(id)
	if !ok {
		return x.notFound(op, a)
	}
	if err := SetProperty(&e, p, v); err != nil {
		return err
	}
	reg.Put(e)
	surf.Patch(e)
	return nil
}

func (x *Executor) notFound(op string, a action.Action) error {
	x.log.Warn("action target missing; skipped",
		slog.String("op", op),
		slog.String("type", string(a.Type())),
		slog.String("id", a.TargetID()))
	return fmt.Errorf("%s %s: %w: %s", op, a.Type(), ErrElementNotFound, a.TargetID())
}
