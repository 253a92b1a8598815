/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package action defines the closed set of invertible edits recorded in a design's history,
// and the record format they are persisted in.
package action

import (
	"errors"
	"fmt"

	"sitebuilder/internal/domain"
)

// Type tags an action variant in persisted records.
type Type string

const (
	TypeAdd       Type = "add"
	TypeDelete    Type = "delete"
	TypeMove      Type = "move"
	TypeModify    Type = "modify"
	TypeDuplicate Type = "duplicate"
)

// ErrInvalidAction is returned for actions that lack identity or inverse data.
var ErrInvalidAction = errors.New("invalid action")

// Action is one recorded edit. Every variant carries the data needed to apply and to revert it.
// The set of variants is closed: Add, Delete, Move, Modify and Duplicate.
type Action interface {
	Type() Type
	// TargetID is the id of the element the action creates, removes or changes.
	TargetID() string
	Validate() error
	isAction()
}

// Add places a new element.
type Add struct {
	Element domain.Element
}

// Delete removes an element. Snapshot and Index describe it as it was just before removal.
type Delete struct {
	ElementID string
	Snapshot  domain.Element
	Index     int
}

// Move repositions an element.
type Move struct {
	ElementID string
	From      domain.Position
	To        domain.Position
}

// Modify changes one property. Values are normalized; an empty value means "unset".
type Modify struct {
	ElementID     string
	Property      domain.Property
	PreviousValue string
	NewValue      string
}

// Duplicate adds a copy of the source element under a new id.
type Duplicate struct {
	SourceID string
	Element  domain.Element
}

func (Add) Type() Type       { return TypeAdd }
func (Delete) Type() Type    { return TypeDelete }
func (Move) Type() Type      { return TypeMove }
func (Modify) Type() Type    { return TypeModify }
func (Duplicate) Type() Type { return TypeDuplicate }

func (a Add) TargetID() string       { return a.Element.ID }
func (a Delete) TargetID() string    { return a.ElementID }
func (a Move) TargetID() string      { return a.ElementID }
func (a Modify) TargetID() string    { return a.ElementID }
func (a Duplicate) TargetID() string { return a.Element.ID }

func (Add) isAction()       {}
func (Delete) isAction()    {}
func (Move) isAction()      {}
func (Modify) isAction()    {}
func (Duplicate) isAction() {}

func invalid(t Type, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidAction, t, fmt.Sprintf(format, args...))
}

func validElement(t Type, e domain.Element) error {
	if e.ID == "" {
		return invalid(t, "element without id")
	}
	if !e.Kind.Valid() {
		return invalid(t, "element %q has unknown kind %q", e.ID, e.Kind)
	}
	return nil
}

func (a Add) Validate() error { return validElement(TypeAdd, a.Element) }

func (a Delete) Validate() error {
	if a.ElementID == "" {
		return invalid(TypeDelete, "missing element id")
	}
	if a.Snapshot.ID != a.ElementID {
		return invalid(TypeDelete, "snapshot id %q does not match %q", a.Snapshot.ID, a.ElementID)
	}
	if a.Index < 0 {
		return invalid(TypeDelete, "negative index %d", a.Index)
	}
	return validElement(TypeDelete, a.Snapshot)
}

func (a Move) Validate() error {
	if a.ElementID == "" {
		return invalid(TypeMove, "missing element id")
	}
	return nil
}

func (a Modify) Validate() error {
	if a.ElementID == "" {
		return invalid(TypeModify, "missing element id")
	}
	if !a.Property.Valid() {
		return invalid(TypeModify, "%v", fmt.Errorf("%w: %q", domain.ErrUnknownProperty, a.Property))
	}
	for _, v := range []string{a.PreviousValue, a.NewValue} {
		if err := domain.CheckValue(a.Property, v); err != nil {
			return invalid(TypeModify, "%v", err)
		}
	}
	return nil
}

func (a Duplicate) Validate() error {
	if a.SourceID == "" {
		return invalid(TypeDuplicate, "missing source id")
	}
	if a.Element.ID == a.SourceID {
		return invalid(TypeDuplicate, "copy reuses source id %q", a.SourceID)
	}
	return validElement(TypeDuplicate, a.Element)
}

// Describe renders a short human-readable summary.
func Describe(a Action) string {
	switch v := a.(type) {
	case Add:
		return fmt.Sprintf("add %s %s at %s", v.Element.Kind, v.Element.ID, v.Element.Position)
	case Delete:
		return fmt.Sprintf("delete %s", v.ElementID)
	case Move:
		return fmt.Sprintf("move %s %s -> %s", v.ElementID, v.From, v.To)
	case Modify:
		return fmt.Sprintf("set %s %s %q -> %q", v.ElementID, v.Property, v.PreviousValue, v.NewValue)
	case Duplicate:
		return fmt.Sprintf("duplicate %s as %s", v.SourceID, v.Element.ID)
	default:
		return fmt.Sprintf("%T", a)
	}
}
