/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package surface

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"sitebuilder/internal/domain"
)

// CanvasID is the id attribute of the canvas container.
const CanvasID = "canvas"

// HTML renders elements into an HTML node tree rooted at <div id="canvas">.
// Each element becomes an absolutely positioned <div> carrying the element id.
type HTML struct {
	root  *html.Node
	nodes map[string]*html.Node
}

func NewHTML() *HTML {
	root := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "id", Val: CanvasID}, {Key: "class", Val: "canvas"}},
	}
	return &HTML{root: root, nodes: make(map[string]*html.Node)}
}

func (s *HTML) Insert(e domain.Element) {
	if old, ok := s.nodes[e.ID]; ok {
		s.root.RemoveChild(old)
	}
	n := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	s.fill(n, e)
	s.root.AppendChild(n)
	s.nodes[e.ID] = n
}

func (s *HTML) Remove(id string) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	s.root.RemoveChild(n)
	delete(s.nodes, id)
}

func (s *HTML) Reposition(id string, p domain.Position) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	// Only the placement declarations written by ElementStyle move; a left or top in the
	// element's own style text stays as authored.
	decls := domain.ParseStyle(attr(n, "style"))
	left, top := false, false
	for i := range decls {
		switch {
		case decls[i].Name == "left" && !left:
			decls[i].Value, left = px(p.X), true
		case decls[i].Name == "top" && !top:
			decls[i].Value, top = px(p.Y), true
		}
	}
	setAttr(n, "style", joinDecls(decls))
}

func (s *HTML) Patch(e domain.Element) {
	n, ok := s.nodes[e.ID]
	if !ok {
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	n.Attr = nil
	s.fill(n, e)
}

func (s *HTML) Clear() {
	for c := s.root.FirstChild; c != nil; c = s.root.FirstChild {
		s.root.RemoveChild(c)
	}
	s.nodes = make(map[string]*html.Node)
}

// IDs returns the rendered element ids in document order.
func (s *HTML) IDs() []string {
	var out []string
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, attr(c, "id"))
	}
	return out
}

// Render returns the canvas container and its children as markup.
func (s *HTML) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, s.root); err != nil {
		return "", fmt.Errorf("render canvas: %w", err)
	}
	return buf.String(), nil
}

// InnerHTML returns the markup of the canvas children only.
func (s *HTML) InnerHTML() (string, error) {
	var buf bytes.Buffer
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render %s: %w", attr(c, "id"), err)
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func (s *HTML) fill(n *html.Node, e domain.Element) {
	n.Attr = []html.Attribute{
		{Key: "id", Val: e.ID},
		{Key: "class", Val: "element element-" + string(e.Kind)},
		{Key: "data-kind", Val: string(e.Kind)},
		{Key: "style", Val: ElementStyle(e)},
	}
	for _, c := range parseContent(e.Content, n) {
		n.AppendChild(c)
	}
}

// ElementStyle is the inline style of a rendered element: placement first, then its own style text.
func ElementStyle(e domain.Element) string {
	decls := []domain.Declaration{
		{Name: "position", Value: "absolute"},
		{Name: "left", Value: px(e.Position.X)},
		{Name: "top", Value: px(e.Position.Y)},
	}
	if e.Size != nil {
		if e.Size.Width != "" {
			decls = append(decls, domain.Declaration{Name: "width", Value: e.Size.Width})
		}
		if e.Size.Height != "" {
			decls = append(decls, domain.Declaration{Name: "height", Value: e.Size.Height})
		}
	}
	out := joinDecls(decls)
	if e.StyleText != "" {
		out += " " + e.StyleText
	}
	return out
}

func parseContent(content string, context *html.Node) []*html.Node {
	if content == "" {
		return nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return []*html.Node{{Type: html.TextNode, Data: content}}
	}
	return nodes
}

func joinDecls(decls []domain.Declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.Name + ": " + d.Value + ";"
	}
	return strings.Join(parts, " ")
}

func px(v int) string { return strconv.Itoa(v) + "px" }

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
