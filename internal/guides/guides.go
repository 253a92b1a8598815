/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package guides computes alignment snapping for elements dragged on the canvas.
// It works in design pixels and has no UI dependencies.
package guides

import "sitebuilder/internal/domain"

// Rect is an element box in design pixels.
type Rect struct{ X, Y, W, H int }

// At returns r moved to p.
func (r Rect) At(p domain.Position) Rect { return Rect{X: p.X, Y: p.Y, W: r.W, H: r.H} }

// Options controls which alignments are considered.
type Options struct {
	// Threshold is the maximum distance at which snapping occurs; 0 means 6.
	Threshold int
	Edges     bool
	Centers   bool
}

// Orientation of a guide line.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

// Line is a guide to draw while a snap is active. Position is the x of a vertical guide or
// the y of a horizontal one; From and To are its extent along the other axis.
type Line struct {
	Orientation Orientation
	Center      bool
	Position    int
	From, To    int
}

type candidate struct {
	delta int
	dist  int
	line  Line
	ok    bool
}

func (c *candidate) consider(delta, threshold int, l Line) {
	dist := delta
	if dist < 0 {
		dist = -dist
	}
	if dist > threshold {
		return
	}
	if !c.ok || dist < c.dist {
		*c = candidate{delta: delta, dist: dist, line: l, ok: true}
	}
}

// Snap aligns moving with the closest anchor feature on each axis independently and returns
// the snapped position with the guides that caused it. Earlier anchors win ties.
func Snap(moving Rect, anchors []Rect, opt Options) (domain.Position, []Line) {
	if opt.Threshold <= 0 {
		opt.Threshold = 6
	}
	var bx, by candidate
	mL, mR, mCX := moving.X, moving.X+moving.W, moving.X+moving.W/2
	mT, mB, mCY := moving.Y, moving.Y+moving.H, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aCX := a.X, a.X+a.W, a.X+a.W/2
		aT, aB, aCY := a.Y, a.Y+a.H, a.Y+a.H/2
		if opt.Edges {
			for _, p := range [][2]int{{mL, aL}, {mR, aR}, {mL, aR}, {mR, aL}} {
				bx.consider(p[0]-p[1], opt.Threshold, vertical(p[1], moving, a, false))
			}
			for _, p := range [][2]int{{mT, aT}, {mB, aB}, {mT, aB}, {mB, aT}} {
				by.consider(p[0]-p[1], opt.Threshold, horizontal(p[1], moving, a, false))
			}
		}
		if opt.Centers {
			bx.consider(mCX-aCX, opt.Threshold, vertical(aCX, moving, a, true))
			by.consider(mCY-aCY, opt.Threshold, horizontal(aCY, moving, a, true))
		}
	}

	pos := domain.Position{X: moving.X, Y: moving.Y}
	var lines []Line
	if bx.ok {
		pos.X -= bx.delta
		lines = append(lines, bx.line)
	}
	if by.ok {
		pos.Y -= by.delta
		lines = append(lines, by.line)
	}
	return pos, lines
}

func vertical(x int, a, b Rect, center bool) Line {
	return Line{Orientation: Vertical, Center: center, Position: x, From: min(a.Y, b.Y), To: max(a.Y+a.H, b.Y+b.H)}
}

func horizontal(y int, a, b Rect, center bool) Line {
	return Line{Orientation: Horizontal, Center: center, Position: y, From: min(a.X, b.X), To: max(a.X+a.W, b.X+b.W)}
}
