//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// These tests exercise the design canvas widget. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/google/go-cmp/cmp"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/guides"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func element(id string, k domain.Kind, x, y int) domain.Element {
	e, _ := domain.NewElement(k)
	e.ID = id
	e.Position = domain.Position{X: x, Y: y}
	e.Size = &domain.Size{Width: "100px", Height: "40px"}
	return e
}

func TestDesignCanvas_SurfaceContract(t *testing.T) {
	test.NewTempApp(t)
	c := NewDesignCanvas()
	c.Insert(element("a", domain.KindButton, 0, 0))
	c.Insert(element("b", domain.KindText, 50, 50))
	c.Insert(element("a", domain.KindButton, 10, 10))
	if diff := cmp.Diff([]string{"b", "a"}, c.IDs()); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	c.Reposition("a", domain.Position{X: 200, Y: 300})
	if got := c.elems["a"].Position; got != (domain.Position{X: 200, Y: 300}) {
		t.Fatalf("reposition = %+v", got)
	}
	c.Patch(domain.Element{ID: "missing"})
	c.Remove("missing")
	c.Remove("b")
	if diff := cmp.Diff([]string{"a"}, c.IDs()); diff != "" {
		t.Fatalf("ids after remove (-want +got):\n%s", diff)
	}
	c.Clear()
	if len(c.IDs()) != 0 {
		t.Fatalf("clear left %v", c.IDs())
	}
}

func TestDesignCanvas_LayoutGeometry(t *testing.T) {
	test.NewTempApp(t)
	c := NewDesignCanvas()
	c.Insert(element("a", domain.KindButton, 100, 60))
	c.SetViewMode(domain.ViewTablet)
	r, ok := test.WidgetRenderer(c).(*designCanvasRenderer)
	if !ok {
		t.Fatalf("unexpected renderer %T", test.WidgetRenderer(c))
	}
	r.Layout(fyne.NewSize(1000, 800))

	if w := r.page.Size().Width; !almostEqual(w, 768*0.5, 0.2) {
		t.Fatalf("page width = %v", w)
	}
	if len(r.visuals) != 1 {
		t.Fatalf("visuals = %d", len(r.visuals))
	}
	rect := r.visuals[0].rect
	if p := rect.Position(); !almostEqual(p.X, canvasMargin+50, 0.2) || !almostEqual(p.Y, canvasMargin+30, 0.2) {
		t.Fatalf("rect position = %v", p)
	}
	if sz := rect.Size(); !almostEqual(sz.Width, 50, 0.2) || !almostEqual(sz.Height, 20, 0.2) {
		t.Fatalf("rect size = %v", sz)
	}

	c.SetGrid(100)
	if len(r.lines) == 0 {
		t.Fatalf("grid lines missing")
	}
}

func TestDesignCanvas_TapSelectsAndDrops(t *testing.T) {
	test.NewTempApp(t)
	c := NewDesignCanvas()
	c.Insert(element("a", domain.KindButton, 100, 100))

	var selected []string
	var dropped *domain.Position
	c.OnSelect = func(id string) { selected = append(selected, id) }
	c.OnTapEmpty = func(p domain.Position) { dropped = &p }

	// Design (110,110) is inside the button at zoom 0.5.
	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(canvasMargin+55, canvasMargin+55)})
	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(canvasMargin+10, canvasMargin+20)})
	if diff := cmp.Diff([]string{"a", ""}, selected); diff != "" {
		t.Fatalf("selections (-want +got):\n%s", diff)
	}
	if dropped == nil || *dropped != (domain.Position{X: 20, Y: 40}) {
		t.Fatalf("drop = %v", dropped)
	}
}

func TestDesignCanvas_DragDrivesSession(t *testing.T) {
	test.NewTempApp(t)
	c := NewDesignCanvas()
	s := editor.New(editor.Options{Surface: c})
	e, err := s.OnDropCreate(domain.KindButton, domain.Position{X: 100, Y: 100})
	if err != nil {
		t.Fatal(err)
	}
	c.OnDragStart = func(id string) { _ = s.OnDragStart(id) }
	c.OnDragMove = func(id string, p domain.Position) { _ = s.OnDragMove(id, p) }
	c.OnDragEnd = func(id string, p domain.Position) { _, _ = s.OnDragEnd(id, p) }

	start := fyne.NewPos(canvasMargin+55, canvasMargin+55)
	step := fyne.Delta{DX: 10, DY: 5}
	pos := start
	for i := 0; i < 3; i++ {
		pos = pos.Add(step)
		c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: pos}, Dragged: step})
	}
	if got := c.elems[e.ID].Position; got != (domain.Position{X: 160, Y: 130}) {
		t.Fatalf("surface position during drag = %+v", got)
	}
	c.DragEnd()

	moved, ok := s.Element(e.ID)
	if !ok || moved.Position != (domain.Position{X: 160, Y: 130}) {
		t.Fatalf("registry position = %+v", moved.Position)
	}
	entries, _ := s.History()
	if len(entries) != 2 {
		t.Fatalf("history = %d entries, want add+move", len(entries))
	}
	s.Undo()
	if got := c.elems[e.ID].Position; got != (domain.Position{X: 100, Y: 100}) {
		t.Fatalf("surface after undo = %+v", got)
	}
}

func TestDesignCanvas_DragOnEmptyPageIgnored(t *testing.T) {
	test.NewTempApp(t)
	c := NewDesignCanvas()
	called := false
	c.OnDragStart = func(string) { called = true }
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(300, 300)}, Dragged: fyne.Delta{DX: 5}})
	c.DragEnd()
	if called {
		t.Fatalf("drag on empty page should not start a drag")
	}
}

func TestDesignCanvas_DragSnapsToGuides(t *testing.T) {
	test.NewTempApp(t)
	c := NewDesignCanvas()
	c.Snap = guides.Options{Edges: true, Centers: true}
	c.Insert(element("a", domain.KindButton, 0, 0))
	c.Insert(element("b", domain.KindButton, 300, 200))
	var end domain.Position
	c.OnDragEnd = func(_ string, p domain.Position) { end = p }

	start := fyne.NewPos(canvasMargin+155, canvasMargin+105)
	delta := fyne.Delta{DX: -98.5, DY: -99}
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: start.Add(delta)}, Dragged: delta})
	if len(c.Guides()) == 0 {
		t.Fatalf("expected alignment guides while dragging next to a")
	}
	c.DragEnd()
	if end != (domain.Position{X: 100, Y: 0}) {
		t.Fatalf("drag end = %+v, want snapped to (100,0)", end)
	}
	if len(c.Guides()) != 0 {
		t.Fatalf("guides left after drag end: %v", c.Guides())
	}
}
