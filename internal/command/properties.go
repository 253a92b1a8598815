/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package command

import (
	"fmt"
	"strings"

	"sitebuilder/internal/domain"
)

// NormalizeValue converts raw property-panel input into the stored form.
// Lengths given as bare numbers get a "px" unit; colors and text pass through unchanged.
// An empty (or, except for text, blank) value means the property is unset. Values that would
// break out of their style declaration fail with domain.ErrInvalidValue.
func NormalizeValue(p domain.Property, raw string) (string, error) {
	if err := domain.CheckValue(p, raw); err != nil {
		return "", err
	}
	switch p {
	case domain.PropWidth, domain.PropHeight, domain.PropFontSize:
		v := strings.TrimSpace(raw)
		if isNumber(v) {
			return v + "px", nil
		}
		return v, nil
	case domain.PropBackgroundColor, domain.PropColor:
		return strings.TrimSpace(raw), nil
	case domain.PropText:
		return raw, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownProperty, p)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// PropertyValue reads a property from an element.
func PropertyValue(e domain.Element, p domain.Property) (string, error) {
	switch p {
	case domain.PropWidth:
		if e.Size == nil {
			return "", nil
		}
		return e.Size.Width, nil
	case domain.PropHeight:
		if e.Size == nil {
			return "", nil
		}
		return e.Size.Height, nil
	case domain.PropBackgroundColor, domain.PropColor, domain.PropFontSize:
		return domain.StyleValue(e.StyleText, string(p)), nil
	case domain.PropText:
		return e.Content, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownProperty, p)
}

// SetProperty writes an already normalized value. An element whose width and height are both
// unset ends up without a size.
func SetProperty(e *domain.Element, p domain.Property, v string) error {
	switch p {
	case domain.PropWidth, domain.PropHeight:
		s := domain.Size{}
		if e.Size != nil {
			s = *e.Size
		}
		if p == domain.PropWidth {
			s.Width = v
		} else {
			s.Height = v
		}
		if s.Width == "" && s.Height == "" {
			e.Size = nil
		} else {
			e.Size = &s
		}
	case domain.PropBackgroundColor, domain.PropColor, domain.PropFontSize:
		e.StyleText = domain.WithStyleValue(e.StyleText, string(p), v)
	case domain.PropText:
		e.Content = v
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownProperty, p)
	}
	return nil
}
