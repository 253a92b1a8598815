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

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewElementDefaults(t *testing.T) {
	for _, k := range Kinds() {
		e, err := NewElement(k)
		if err != nil {
			t.Fatalf("NewElement(%s): %v", k, err)
		}
		if e.Kind != k || !strings.HasPrefix(e.ID, string(k)+"-") {
			t.Fatalf("unexpected element: %+v", e)
		}
		if e.StyleText != CanonicalStyle(e.StyleText) {
			t.Fatalf("%s default style not canonical: %q", k, e.StyleText)
		}
	}
	a, _ := NewElement(KindImage)
	b, _ := NewElement(KindImage)
	if a.ID == b.ID {
		t.Fatalf("ids reused: %q", a.ID)
	}
	a.Size.Width = "1px"
	if b.Size.Width == "1px" {
		t.Fatalf("default size shared between elements")
	}
	if _, err := NewElement("carousel"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestParseKindAndProperty(t *testing.T) {
	if k, err := ParseKind(" Button "); err != nil || k != KindButton {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if p, err := ParseProperty("font-color"); err != nil || p != PropColor {
		t.Fatalf("ParseProperty alias = %q, %v", p, err)
	}
	if _, err := ParseProperty("border"); !errors.Is(err, ErrUnknownProperty) {
		t.Fatalf("err = %v, want ErrUnknownProperty", err)
	}
	if _, err := ParseViewMode("watch"); !errors.Is(err, ErrUnknownViewMode) {
		t.Fatalf("err = %v, want ErrUnknownViewMode", err)
	}
	if ViewMobile.CanvasWidth() != 375 || ViewTablet.CanvasWidth() != 768 || ViewDesktop.CanvasWidth() != 1280 {
		t.Fatalf("unexpected canvas widths")
	}
}

func TestCanonicalStyleOrdering(t *testing.T) {
	in := "font-size:12px;border: 1px solid red ; color:#000; margin: 0;background-color: white"
	want := "border: 1px solid red; margin: 0; background-color: white; color: #000; font-size: 12px;"
	if got := CanonicalStyle(in); got != want {
		t.Fatalf("CanonicalStyle = %q, want %q", got, want)
	}
	if got := CanonicalStyle(want); got != want {
		t.Fatalf("canonical form not stable: %q", got)
	}
}

func TestStyleValueRoundTrip(t *testing.T) {
	base := CanonicalStyle("padding: 4px; color: red; font-size: 14px;")
	cleared := WithStyleValue(base, "color", "")
	if StyleValue(cleared, "color") != "" {
		t.Fatalf("color not cleared: %q", cleared)
	}
	restored := WithStyleValue(cleared, "color", "red")
	if restored != base {
		t.Fatalf("round trip = %q, want %q", restored, base)
	}
	if StyleValue(restored, "font-size") != "14px" {
		t.Fatalf("font-size lost: %q", restored)
	}
}

func TestElementLegacyFields(t *testing.T) {
	var e Element
	if err := json.Unmarshal([]byte(`{"id":"b1","type":"button","styles":"color: red;","position":{"x":3,"y":4}}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Element{ID: "b1", Kind: KindButton, Position: Position{X: 3, Y: 4}, StyleText: "color: red;"}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDesignDefaultsPartsIndependently(t *testing.T) {
	data := []byte(`{"elements": "oops", "history": ["a","b"], "deviceView": "tablet"}`)
	d, issues, err := DecodeDesign(data)
	if err != nil {
		t.Fatalf("DecodeDesign: %v", err)
	}
	if len(d.Elements) != 0 || len(d.History) != 2 || d.ViewMode != ViewTablet {
		t.Fatalf("unexpected design: %+v", d)
	}
	if len(issues) == 0 {
		t.Fatalf("expected an issue for malformed elements")
	}

	d, _, err = DecodeDesign([]byte(`{}`))
	if err != nil {
		t.Fatalf("DecodeDesign empty: %v", err)
	}
	if d.ViewMode != DefaultViewMode || d.Cursor() != -1 {
		t.Fatalf("empty design not defaulted: %+v", d)
	}

	if _, _, err := DecodeDesign([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error for non-object design")
	}
}

func TestNormalizeRepairsElements(t *testing.T) {
	idx := 7
	d := Design{
		Elements: []Element{
			{ID: "a", Kind: KindText},
			{ID: "a", Kind: KindText},
			{ID: "x", Kind: "marquee"},
			{Kind: KindHeading, Size: &Size{}},
		},
		History:      []string{"1", "2"},
		HistoryIndex: &idx,
		ViewMode:     "watch",
	}
	issues := d.Normalize()
	if len(d.Elements) != 2 || d.Elements[0].ID != "a" || d.Elements[1].ID == "" {
		t.Fatalf("unexpected elements: %+v", d.Elements)
	}
	if d.Elements[1].Size != nil {
		t.Fatalf("empty size not cleared")
	}
	if d.ViewMode != ViewDesktop {
		t.Fatalf("ViewMode = %q", d.ViewMode)
	}
	if d.HistoryIndex != nil || d.Cursor() != 1 {
		t.Fatalf("cursor not clamped to end: %v", d.HistoryIndex)
	}
	if len(issues) != 5 {
		t.Fatalf("issues = %d (%v)", len(issues), issues)
	}
}

func TestEncodedDesignConformsToSchema(t *testing.T) {
	e, _ := NewElement(KindImage)
	idx := -1
	d := Design{Elements: []Element{e}, History: []string{`{"type":"add"}`}, HistoryIndex: &idx, ViewMode: ViewMobile}
	b, err := EncodeDesign(d)
	if err != nil {
		t.Fatalf("EncodeDesign: %v", err)
	}
	if err := ValidateDesignJSON(b); err != nil {
		t.Fatalf("ValidateDesignJSON: %v", err)
	}
	empty, _ := EncodeDesign(Design{ViewMode: ViewDesktop})
	if err := ValidateDesignJSON(empty); err != nil {
		t.Fatalf("empty design invalid: %v", err)
	}
	back, _, err := DecodeDesign(b)
	if err != nil {
		t.Fatalf("DecodeDesign: %v", err)
	}
	if diff := cmp.Diff(d, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"missing elements": `{"history": [], "viewMode": "desktop"}`,
		"bad view mode":    `{"elements": [], "history": [], "viewMode": "watch"}`,
		"bad kind":         `{"elements": [{"id":"a","kind":"marquee","position":{"x":0,"y":0}}], "history": [], "viewMode": "desktop"}`,
	}
	for name, doc := range cases {
		if err := ValidateDesignJSON([]byte(doc)); !errors.Is(err, ErrSchema) {
			t.Fatalf("%s: err = %v, want ErrSchema", name, err)
		}
	}
	if err := ValidateElementsJSON([]byte(`[{"id":"a","kind":"text","position":{"x":1,"y":2}}]`)); err != nil {
		t.Fatalf("ValidateElementsJSON: %v", err)
	}
	if err := ValidateElementsJSON([]byte(`[{"id":"","kind":"text","position":{"x":1,"y":2}}]`)); !errors.Is(err, ErrSchema) {
		t.Fatalf("empty id accepted: %v", err)
	}
}
