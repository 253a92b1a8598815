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

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/export"
	"sitebuilder/internal/guides"
	"sitebuilder/internal/surface"
)

// canvasMargin is the screen distance between the widget edge and the page.
const canvasMargin = 20

var _ surface.Surface = (*DesignCanvas)(nil)

// DesignCanvas draws the design as wireframe boxes at the canvas width of the current view mode.
// It is the editor's surface: the session mutates it, the widget only reports pointer gestures.
type DesignCanvas struct {
	widget.BaseWidget

	zoom     float32
	mode     domain.ViewMode
	grid     int
	order    []string
	elems    map[string]domain.Element
	selected string

	dragID    string
	dragStart domain.Position
	dragDelta fyne.Delta
	dragPos   domain.Position

	// Snap aligns dragged elements with the page and the other elements; the zero value disables it.
	Snap   guides.Options
	active []guides.Line

	// OnSelect is called with the id under a tap, or "" when the tap hit the empty page.
	OnSelect func(id string)
	// OnTapEmpty receives the design position of a tap on the empty page.
	OnTapEmpty  func(p domain.Position)
	OnDragStart func(id string)
	OnDragMove  func(id string, p domain.Position)
	OnDragEnd   func(id string, p domain.Position)
}

func NewDesignCanvas() *DesignCanvas {
	c := &DesignCanvas{
		zoom:  0.5,
		mode:  domain.DefaultViewMode,
		elems: make(map[string]domain.Element),
	}
	c.ExtendBaseWidget(c)
	return c
}

func (c *DesignCanvas) Insert(e domain.Element) {
	c.drop(e.ID)
	c.order = append(c.order, e.ID)
	c.elems[e.ID] = e
	c.Refresh()
}

func (c *DesignCanvas) Remove(id string) {
	if _, ok := c.elems[id]; !ok {
		return
	}
	c.drop(id)
	if c.selected == id {
		c.selected = ""
	}
	c.Refresh()
}

func (c *DesignCanvas) Reposition(id string, p domain.Position) {
	e, ok := c.elems[id]
	if !ok {
		return
	}
	e.Position = p
	c.elems[id] = e
	c.Refresh()
}

func (c *DesignCanvas) Patch(e domain.Element) {
	if _, ok := c.elems[e.ID]; !ok {
		return
	}
	c.elems[e.ID] = e
	c.Refresh()
}

func (c *DesignCanvas) Clear() {
	c.order = nil
	c.elems = make(map[string]domain.Element)
	c.selected = ""
	c.Refresh()
}

func (c *DesignCanvas) drop(id string) {
	if _, ok := c.elems[id]; !ok {
		return
	}
	delete(c.elems, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// IDs returns the drawn element ids, bottom first.
func (c *DesignCanvas) IDs() []string { return append([]string(nil), c.order...) }

func (c *DesignCanvas) elements() []domain.Element {
	out := make([]domain.Element, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.elems[id])
	}
	return out
}

// SetViewMode switches the page width.
func (c *DesignCanvas) SetViewMode(m domain.ViewMode) {
	c.mode = m
	c.Refresh()
}

// SetGrid draws grid lines every n design pixels; 0 hides the grid.
func (c *DesignCanvas) SetGrid(n int) {
	c.grid = n
	c.Refresh()
}

// Highlight marks id as selected without notifying OnSelect.
func (c *DesignCanvas) Highlight(id string) {
	if _, ok := c.elems[id]; !ok {
		id = ""
	}
	c.selected = id
	c.Refresh()
}

func (c *DesignCanvas) frame() export.Frame { return export.Layout(c.elements(), c.mode) }

func (c *DesignCanvas) toScreen(x, y int) fyne.Position {
	return fyne.NewPos(canvasMargin+float32(x)*c.zoom, canvasMargin+float32(y)*c.zoom)
}

func (c *DesignCanvas) toDesign(pos fyne.Position) domain.Position {
	return domain.Position{
		X: int((pos.X - canvasMargin) / c.zoom),
		Y: int((pos.Y - canvasMargin) / c.zoom),
	}
}

// hitTest returns the topmost element under the design point, or "".
func (c *DesignCanvas) hitTest(p domain.Position) string {
	boxes := c.frame().Boxes
	for i := len(boxes) - 1; i >= 0; i-- {
		b := boxes[i]
		if p.X >= b.X && p.X < b.X+b.W && p.Y >= b.Y && p.Y < b.Y+b.H {
			return b.ID
		}
	}
	return ""
}

func (c *DesignCanvas) Tapped(e *fyne.PointEvent) {
	p := c.toDesign(e.Position)
	id := c.hitTest(p)
	c.selected = id
	c.Refresh()
	if c.OnSelect != nil {
		c.OnSelect(id)
	}
	if id == "" && c.OnTapEmpty != nil {
		c.OnTapEmpty(p)
	}
}

// Dragged moves the element under the gesture start. Drags that start on the empty page are ignored.
func (c *DesignCanvas) Dragged(e *fyne.DragEvent) {
	if c.dragID == "" {
		start := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		id := c.hitTest(c.toDesign(start))
		if id == "" {
			return
		}
		c.dragID = id
		c.dragStart = c.elems[id].Position
		c.dragDelta = fyne.Delta{}
		c.selected = id
		if c.OnDragStart != nil {
			c.OnDragStart(id)
		}
	}
	c.dragDelta.DX += e.Dragged.DX
	c.dragDelta.DY += e.Dragged.DY
	shown := len(c.active) > 0
	c.dragPos, c.active = c.snap(c.dragID, c.dragTarget())
	if c.OnDragMove != nil {
		c.OnDragMove(c.dragID, c.dragPos)
	}
	if shown || len(c.active) > 0 {
		c.Refresh()
	}
}

func (c *DesignCanvas) DragEnd() {
	if c.dragID == "" {
		return
	}
	id, p := c.dragID, c.dragPos
	c.dragID = ""
	c.active = nil
	if c.OnDragEnd != nil {
		c.OnDragEnd(id, p)
	}
	c.Refresh()
}

// snap aligns the dragged element at p with the page and the other elements.
func (c *DesignCanvas) snap(id string, p domain.Position) (domain.Position, []guides.Line) {
	if !c.Snap.Edges && !c.Snap.Centers {
		return p, nil
	}
	f := c.frame()
	anchors := []guides.Rect{{W: f.Width, H: f.Height}}
	var moving guides.Rect
	for _, b := range f.Boxes {
		r := guides.Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
		if b.ID == id {
			moving = r.At(p)
			continue
		}
		anchors = append(anchors, r)
	}
	return guides.Snap(moving, anchors, c.Snap)
}

// Guides returns the alignment guides of the drag in progress.
func (c *DesignCanvas) Guides() []guides.Line { return c.active }

func (c *DesignCanvas) dragTarget() domain.Position {
	return domain.Position{
		X: c.dragStart.X + int(c.dragDelta.DX/c.zoom),
		Y: c.dragStart.Y + int(c.dragDelta.DY/c.zoom),
	}
}

// Scrolled zooms.
func (c *DesignCanvas) Scrolled(e *fyne.ScrollEvent) {
	c.zoom += e.Scrolled.DY * 0.05
	if c.zoom < 0.1 {
		c.zoom = 0.1
	}
	if c.zoom > 4.0 {
		c.zoom = 4.0
	}
	c.Refresh()
}

func (c *DesignCanvas) MinSize() fyne.Size { return fyne.NewSize(800, 600) }

func (c *DesignCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	page := canvas.NewRectangle(color.White)
	page.StrokeColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	page.StrokeWidth = 1
	r := &designCanvasRenderer{c: c, bg: bg, page: page}
	r.rebuild()
	return r
}

type elementVisual struct {
	box   export.Box
	rect  *canvas.Rectangle
	label *canvas.Text
}

type gridLine struct {
	x1, y1, x2, y2 int
	line           *canvas.Line
}

type designCanvasRenderer struct {
	c       *DesignCanvas
	bg      *canvas.Rectangle
	page    *canvas.Rectangle
	frame   export.Frame
	lines   []gridLine
	guides  []gridLine
	visuals []elementVisual
	objects []fyne.CanvasObject
}

var (
	strokeColor    = color.RGBA{R: 31, G: 41, B: 51, A: 255}
	selectionColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	gridColor      = color.RGBA{R: 228, G: 231, B: 235, A: 255}
	guideColor     = color.RGBA{R: 236, G: 72, B: 153, A: 255}
)

// rebuild recreates the element visuals from the canvas state.
func (r *designCanvasRenderer) rebuild() {
	r.frame = r.c.frame()
	r.lines = r.lines[:0]
	if g := r.c.grid; g > 0 {
		for x := g; x < r.frame.Width; x += g {
			r.lines = append(r.lines, newGridLine(x, 0, x, r.frame.Height))
		}
		for y := g; y < r.frame.Height; y += g {
			r.lines = append(r.lines, newGridLine(0, y, r.frame.Width, y))
		}
	}
	r.guides = r.guides[:0]
	for _, g := range r.c.active {
		var l gridLine
		if g.Orientation == guides.Vertical {
			l = newGridLine(g.Position, g.From, g.Position, g.To)
		} else {
			l = newGridLine(g.From, g.Position, g.To, g.Position)
		}
		l.line.StrokeColor = guideColor
		r.guides = append(r.guides, l)
	}
	r.visuals = r.visuals[:0]
	for _, b := range r.frame.Boxes {
		rect := canvas.NewRectangle(color.White)
		if b.HasFill {
			rect.FillColor = b.Fill
		}
		rect.StrokeColor = strokeColor
		rect.StrokeWidth = 1
		if b.ID == r.c.selected {
			rect.StrokeColor = selectionColor
			rect.StrokeWidth = 2
		}
		label := canvas.NewText(b.Label, strokeColor)
		label.TextSize = 11
		r.visuals = append(r.visuals, elementVisual{box: b, rect: rect, label: label})
	}

	r.objects = append(r.objects[:0], r.bg, r.page)
	for _, l := range r.lines {
		r.objects = append(r.objects, l.line)
	}
	for _, v := range r.visuals {
		r.objects = append(r.objects, v.rect, v.label)
	}
	for _, g := range r.guides {
		r.objects = append(r.objects, g.line)
	}
}

func newGridLine(x1, y1, x2, y2 int) gridLine {
	l := canvas.NewLine(gridColor)
	l.StrokeWidth = 1
	return gridLine{x1: x1, y1: y1, x2: x2, y2: y2, line: l}
}

func (r *designCanvasRenderer) Layout(size fyne.Size) {
	z := r.c.zoom
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.page.Move(r.c.toScreen(0, 0))
	r.page.Resize(fyne.NewSize(float32(r.frame.Width)*z, float32(r.frame.Height)*z))
	for _, l := range append(r.lines, r.guides...) {
		l.line.Position1 = r.c.toScreen(l.x1, l.y1)
		l.line.Position2 = r.c.toScreen(l.x2, l.y2)
	}
	for _, v := range r.visuals {
		v.rect.Move(r.c.toScreen(v.box.X, v.box.Y))
		v.rect.Resize(fyne.NewSize(float32(v.box.W)*z, float32(v.box.H)*z))
		v.label.Move(r.c.toScreen(v.box.X+4, v.box.Y+2))
	}
}

func (r *designCanvasRenderer) MinSize() fyne.Size           { return r.c.MinSize() }
func (r *designCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *designCanvasRenderer) Destroy()                     {}

func (r *designCanvasRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.c.Size())
	canvas.Refresh(r.c)
}
