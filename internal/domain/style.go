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
	"errors"
	"fmt"
	"strings"
)

// Property names an editable attribute of an element. The set is closed.
type Property string

const (
	PropWidth           Property = "width"
	PropHeight          Property = "height"
	PropBackgroundColor Property = "background-color"
	PropColor           Property = "color"
	PropFontSize        Property = "font-size"
	PropText            Property = "text"
)

// ErrUnknownProperty is returned for property names outside the editable set.
var ErrUnknownProperty = errors.New("unknown property")

// ErrInvalidValue is returned for a style value that would split into several declarations.
var ErrInvalidValue = errors.New("invalid property value")

// CheckValue rejects values of style-backed properties that contain declaration or block
// separators. Text content is free-form.
func CheckValue(p Property, v string) error {
	if p == PropText {
		return nil
	}
	if i := strings.IndexAny(v, ";{}\r\n"); i >= 0 {
		return fmt.Errorf("%w: %s may not contain %q", ErrInvalidValue, p, v[i])
	}
	return nil
}

// Properties lists the editable properties in panel order.
func Properties() []Property {
	return []Property{PropWidth, PropHeight, PropBackgroundColor, PropColor, PropFontSize, PropText}
}

// ParseProperty resolves a property name. "font-color" and "background" are accepted as aliases.
func ParseProperty(s string) (Property, error) {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "font-color":
		return PropColor, nil
	case "background":
		return PropBackgroundColor, nil
	default:
		prop := Property(p)
		if prop.Valid() {
			return prop, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, s)
	}
}

func (p Property) Valid() bool {
	switch p {
	case PropWidth, PropHeight, PropBackgroundColor, PropColor, PropFontSize, PropText:
		return true
	}
	return false
}

// Styled reports whether the property lives in the element's style text.
func (p Property) Styled() bool {
	return p == PropBackgroundColor || p == PropColor || p == PropFontSize
}

// managedStyles are the style declarations owned by the property panel, in canonical order.
var managedStyles = []Property{PropBackgroundColor, PropColor, PropFontSize}

// Declaration is one "name: value;" entry of a style text.
type Declaration struct {
	Name  string
	Value string
}

// ParseStyle splits style text into declarations. Names are lower-cased; empty entries are skipped.
func ParseStyle(s string) []Declaration {
	var out []Declaration
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		out = append(out, Declaration{Name: name, Value: value})
	}
	return out
}

// FormatStyle renders declarations in canonical form: unmanaged declarations keep their order,
// followed by the managed ones in fixed order. The last occurrence of a managed name wins.
func FormatStyle(decls []Declaration) string {
	managed := make(map[string]string, len(managedStyles))
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		if Property(d.Name).Styled() {
			managed[d.Name] = d.Value
			continue
		}
		parts = append(parts, d.Name+": "+d.Value+";")
	}
	for _, p := range managedStyles {
		if v, ok := managed[string(p)]; ok && v != "" {
			parts = append(parts, string(p)+": "+v+";")
		}
	}
	return strings.Join(parts, " ")
}

// CanonicalStyle normalizes style text.
func CanonicalStyle(s string) string { return FormatStyle(ParseStyle(s)) }

// StyleValue returns the value of a declaration, or "" when absent.
func StyleValue(style, name string) string {
	v := ""
	for _, d := range ParseStyle(style) {
		if d.Name == name {
			v = d.Value
		}
	}
	return v
}

// WithStyleValue sets (or, with an empty value, removes) a declaration and returns canonical style text.
func WithStyleValue(style, name, value string) string {
	decls := ParseStyle(style)
	out := decls[:0]
	for _, d := range decls {
		if d.Name != name {
			out = append(out, d)
		}
	}
	if value != "" {
		out = append(out, Declaration{Name: name, Value: value})
	}
	return FormatStyle(out)
}
