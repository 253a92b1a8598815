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
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"sitebuilder/internal/domain"
)

func sample(id string) domain.Element {
	return domain.Element{
		ID:        id,
		Kind:      domain.KindButton,
		Position:  domain.Position{X: 10, Y: 20},
		Size:      &domain.Size{Width: "120px"},
		StyleText: "color: #fff;",
		Content:   "<button>Go</button>",
	}
}

func TestEncodeDecodeEachVariant(t *testing.T) {
	actions := []Action{
		Add{Element: sample("a")},
		Delete{ElementID: "a", Snapshot: sample("a"), Index: 2},
		Move{ElementID: "a", From: domain.Position{}, To: domain.Position{X: 50, Y: 80}},
		Modify{ElementID: "a", Property: domain.PropWidth, PreviousValue: "", NewValue: "200px"},
		Duplicate{SourceID: "a", Element: sample("b")},
	}
	recs, err := EncodeAll(actions)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	got, err := DecodeAll(recs)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if diff := cmp.Diff(actions, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsMissingInverseData(t *testing.T) {
	cases := map[string]string{
		"move without from":    `{"type":"move","elementId":"a","to":{"x":1,"y":2}}`,
		"modify without prev":  `{"type":"modify","elementId":"a","property":"width","newValue":"2px"}`,
		"delete without snap":  `{"type":"delete","elementId":"a","index":0}`,
		"delete without index": `{"type":"delete","elementId":"a","snapshot":{"id":"a","kind":"text","position":{"x":0,"y":0}}}`,
		"unknown type":         `{"type":"resize","elementId":"a"}`,
		"unknown property":     `{"type":"modify","elementId":"a","property":"border","previousValue":"","newValue":"1px"}`,
		"add without id":       `{"type":"add","element":{"kind":"text","position":{"x":0,"y":0}}}`,
		"not json":             `add a`,
	}
	for name, rec := range cases {
		if _, err := Decode(rec); !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("%s: err = %v, want ErrInvalidAction", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	bad := []Action{
		Delete{ElementID: "a", Snapshot: sample("b")},
		Delete{ElementID: "a", Snapshot: sample("a"), Index: -1},
		Duplicate{SourceID: "a", Element: sample("a")},
		Move{},
		Modify{ElementID: "a", Property: "border"},
		Modify{ElementID: "a", Property: domain.PropColor, NewValue: "red; padding: 40px"},
	}
	for _, a := range bad {
		if err := a.Validate(); !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("%T: err = %v, want ErrInvalidAction", a, err)
		}
		if _, err := Encode(a); err == nil {
			t.Fatalf("%T: Encode accepted an invalid action", a)
		}
	}
	if _, err := Encode(nil); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("Encode(nil) err = %v", err)
	}
}

func TestDecodeAllReportsIndex(t *testing.T) {
	good, _ := Encode(Add{Element: sample("a")})
	_, err := DecodeAll([]string{good, "{}"})
	if err == nil || !strings.Contains(err.Error(), "history[1]") {
		t.Fatalf("err = %v, want history[1] prefix", err)
	}
}

func TestTargetIDAndDescribe(t *testing.T) {
	d := Duplicate{SourceID: "a", Element: sample("b")}
	if d.TargetID() != "b" || d.Type() != TypeDuplicate {
		t.Fatalf("unexpected target/type: %s %s", d.TargetID(), d.Type())
	}
	if got := Describe(Move{ElementID: "a", To: domain.Position{X: 1, Y: 2}}); got != "move a (0,0) -> (1,2)" {
		t.Fatalf("Describe = %q", got)
	}
}
