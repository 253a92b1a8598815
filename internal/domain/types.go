/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model of a design: the placed elements and their attributes.
// Elements serialize to the JSON shape shared by the file manifest, the design service and the
// persisted history records.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind is the widget type of an element. It is fixed at creation time.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindText      Kind = "text"
	KindButton    Kind = "button"
	KindImage     Kind = "image"
	KindLink      Kind = "link"
	KindInput     Kind = "input"
	KindContainer Kind = "container"
	KindVideo     Kind = "video"
	KindDivider   Kind = "divider"
)

// ErrUnknownKind is returned for widget types outside the palette.
var ErrUnknownKind = errors.New("unknown element kind")

type kindDefaults struct {
	content string
	style   string
	size    *Size
}

var palette = map[Kind]kindDefaults{
	KindHeading:   {content: "<h2>Heading</h2>", style: "font-size: 32px; color: #1f2933;"},
	KindText:      {content: "<p>Edit this text</p>", style: "font-size: 16px; color: #323f4b;"},
	KindButton:    {content: "<button>Click me</button>", style: "background-color: #2563eb; color: #ffffff;"},
	KindImage:     {content: `<img src="https://via.placeholder.com/300x200" alt="Image">`, size: &Size{Width: "300px", Height: "200px"}},
	KindLink:      {content: `<a href="#">Link</a>`, style: "color: #2563eb;"},
	KindInput:     {content: `<input type="text" placeholder="Enter text">`},
	KindContainer: {content: "", style: "background-color: #f5f7fa;", size: &Size{Width: "400px", Height: "200px"}},
	KindVideo:     {content: `<video controls></video>`, size: &Size{Width: "320px", Height: "180px"}},
	KindDivider:   {content: "<hr>", size: &Size{Width: "400px"}},
}

// Kinds returns the palette in display order.
func Kinds() []Kind {
	return []Kind{KindHeading, KindText, KindButton, KindImage, KindLink, KindInput, KindContainer, KindVideo, KindDivider}
}

// ParseKind resolves a palette name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := palette[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is part of the palette.
func (k Kind) Valid() bool {
	_, ok := palette[k]
	return ok
}

// Position is the element's top-left offset on the canvas, in pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Size holds CSS lengths. An empty field means "not set".
type Size struct {
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// Element is one placed widget.
type Element struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Position  Position `json:"position"`
	Size      *Size    `json:"size,omitempty"`
	StyleText string   `json:"styleText"`
	Content   string   `json:"content"`
}

// NewID allocates a fresh element identifier.
func NewID(k Kind) string {
	return string(k) + "-" + uuid.NewString()
}

// NewElement returns an element of kind k with a fresh id and the kind's default content and style.
func NewElement(k Kind) (Element, error) {
	d, ok := palette[k]
	if !ok {
		return Element{}, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	e := Element{
		ID:        NewID(k),
		Kind:      k,
		StyleText: CanonicalStyle(d.style),
		Content:   d.content,
	}
	if d.size != nil {
		s := *d.size
		e.Size = &s
	}
	return e, nil
}

// Clone returns a deep copy.
func (e Element) Clone() Element {
	c := e
	if e.Size != nil {
		s := *e.Size
		c.Size = &s
	}
	return c
}

// UnmarshalJSON also accepts the legacy "type" and "styles" field names.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	var aux struct {
		plain
		Type   *string `json:"type"`
		Styles *string `json:"styles"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Element(aux.plain)
	if e.Kind == "" && aux.Type != nil {
		e.Kind = Kind(*aux.Type)
	}
	if e.StyleText == "" && aux.Styles != nil {
		e.StyleText = *aux.Styles
	}
	return nil
}
