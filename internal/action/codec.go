/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package action

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sitebuilder/internal/domain"
)

// record is the persisted shape of an action. Pointer fields distinguish "absent" from zero values
// so records without inverse data are rejected instead of silently reverting to zero.
type record struct {
	Type          Type             `json:"type"`
	ElementID     string           `json:"elementId,omitempty"`
	SourceID      string           `json:"sourceId,omitempty"`
	Element       *domain.Element  `json:"element,omitempty"`
	Snapshot      *domain.Element  `json:"snapshot,omitempty"`
	Index         *int             `json:"index,omitempty"`
	From          *domain.Position `json:"from,omitempty"`
	To            *domain.Position `json:"to,omitempty"`
	Property      domain.Property  `json:"property,omitempty"`
	PreviousValue *string          `json:"previousValue,omitempty"`
	NewValue      *string          `json:"newValue,omitempty"`
}

// Encode serializes a validated action into an opaque history record.
func Encode(a Action) (string, error) {
	if a == nil {
		return "", fmt.Errorf("%w: nil action", ErrInvalidAction)
	}
	if err := a.Validate(); err != nil {
		return "", err
	}
	rec := record{Type: a.Type()}
	switch v := a.(type) {
	case Add:
		e := v.Element
		rec.Element = &e
	case Delete:
		s, i := v.Snapshot, v.Index
		rec.ElementID, rec.Snapshot, rec.Index = v.ElementID, &s, &i
	case Move:
		from, to := v.From, v.To
		rec.ElementID, rec.From, rec.To = v.ElementID, &from, &to
	case Modify:
		prev, next := v.PreviousValue, v.NewValue
		rec.ElementID, rec.Property = v.ElementID, v.Property
		rec.PreviousValue, rec.NewValue = &prev, &next
	case Duplicate:
		e := v.Element
		rec.SourceID, rec.Element = v.SourceID, &e
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", a.Type(), err)
	}
	return string(b), nil
}

// Decode parses a history record. Records missing identity or inverse data fail with ErrInvalidAction.
func Decode(s string) (Action, error) {
	var rec record
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	var a Action
	switch rec.Type {
	case TypeAdd:
		if rec.Element == nil {
			return nil, invalid(rec.Type, "missing element")
		}
		a = Add{Element: *rec.Element}
	case TypeDelete:
		if rec.Snapshot == nil || rec.Index == nil {
			return nil, invalid(rec.Type, "missing snapshot or index")
		}
		a = Delete{ElementID: rec.ElementID, Snapshot: *rec.Snapshot, Index: *rec.Index}
	case TypeMove:
		if rec.From == nil || rec.To == nil {
			return nil, invalid(rec.Type, "missing from or to position")
		}
		a = Move{ElementID: rec.ElementID, From: *rec.From, To: *rec.To}
	case TypeModify:
		if rec.PreviousValue == nil || rec.NewValue == nil {
			return nil, invalid(rec.Type, "missing previous or new value")
		}
		a = Modify{ElementID: rec.ElementID, Property: rec.Property, PreviousValue: *rec.PreviousValue, NewValue: *rec.NewValue}
	case TypeDuplicate:
		if rec.Element == nil {
			return nil, invalid(rec.Type, "missing element")
		}
		a = Duplicate{SourceID: rec.SourceID, Element: *rec.Element}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, rec.Type)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// EncodeAll serializes a history in order.
func EncodeAll(actions []Action) ([]string, error) {
	out := make([]string, 0, len(actions))
	for i, a := range actions {
		s, err := Encode(a)
		if err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// DecodeAll parses a history; it fails on the first bad record.
func DecodeAll(records []string) ([]Action, error) {
	out := make([]Action, 0, len(records))
	for i, s := range records {
		a, err := Decode(s)
		if err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
