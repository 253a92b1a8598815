/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sitebuilder/internal/domain"
)

var (
	reCommand = regexp.MustCompile(`^(\S+)\s*(.*)$`)
	reID      = regexp.MustCompile(`^(\$|@|[A-Za-z0-9_-]{1,128})$`)
)

var aliases = map[string]Op{
	"duplicate": OpDuplicate,
	"del":       OpDelete,
	"rm":        OpDelete,
	"mode":      OpView,
	"ls":        OpList,
}

// arity is the number of whitespace separated arguments each op takes; -1 means "at least three".
var arity = map[Op]int{
	OpAdd: 3, OpMove: 3, OpSet: -1, OpDelete: 1, OpDuplicate: 1, OpSelect: 1, OpView: 1,
	OpUndo: 0, OpRedo: 0, OpList: 0, OpHistory: 0, OpNotices: 0, OpSave: 0, OpPublish: 0,
}

// Parse parses a whole script. Blank lines and comments (starting with "#" or ";") are skipped.
// Parsing continues after an error so every bad line is reported.
func Parse(input string) ([]Command, []Error) {
	var cmds []Command
	var errs []Error
	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		c, ok, err := ParseLine(scanner.Text(), lineNo)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		if ok {
			cmds = append(cmds, c)
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return cmds, errs
}

// ParseLine parses a single line. ok is false for blank and comment lines.
func ParseLine(line string, lineNo int) (Command, bool, *Error) {
	trim := strings.TrimSpace(line)
	if trim == "" || strings.HasPrefix(trim, "#") || strings.HasPrefix(trim, ";") {
		return Command{}, false, nil
	}
	col := strings.Index(line, trim) + 1
	fail := func(offset int, format string, args ...any) (Command, bool, *Error) {
		return Command{}, false, &Error{Line: lineNo, Column: col + offset, Message: fmt.Sprintf(format, args...)}
	}

	m := reCommand.FindStringSubmatch(trim)
	word := strings.ToLower(m[1])
	op := Op(word)
	if a, ok := aliases[word]; ok {
		op = a
	}
	want, known := arity[op]
	if !known {
		return fail(0, "unknown command %q", m[1])
	}
	rest := m[2]
	args := strings.Fields(rest)
	argCol := len(m[1]) + 1
	switch {
	case want == -1 && len(args) < 3:
		return fail(argCol, "%s expects an id, a property and a value", op)
	case want >= 0 && len(args) != want:
		return fail(argCol, "%s expects %d argument(s), got %d", op, want, len(args))
	}

	c := Command{Op: op, LineNo: lineNo}
	switch op {
	case OpAdd:
		k, err := domain.ParseKind(args[0])
		if err != nil {
			return fail(argCol, "%v", err)
		}
		p, err := parsePos(args[1], args[2])
		if err != nil {
			return fail(argCol, "%v", err)
		}
		c.Kind, c.Pos = k, p
	case OpMove:
		p, err := parsePos(args[1], args[2])
		if err != nil {
			return fail(argCol, "%v", err)
		}
		c.ID, c.Pos = args[0], p
	case OpSet:
		prop, err := domain.ParseProperty(args[1])
		if err != nil {
			return fail(argCol, "%v", err)
		}
		c.ID, c.Property = args[0], prop
		// The value is everything after the property name, inner spacing kept.
		v := strings.TrimSpace(rest[len(args[0]):])
		c.Value = unquote(strings.TrimSpace(v[len(args[1]):]))
	case OpDelete, OpDuplicate, OpSelect:
		c.ID = args[0]
	case OpView:
		v, err := domain.ParseViewMode(strings.ToLower(args[0]))
		if err != nil {
			return fail(argCol, "%v", err)
		}
		c.View = v
	}
	if c.ID != "" && !reID.MatchString(c.ID) {
		return fail(argCol, "invalid element id %q", c.ID)
	}
	return c, true, nil
}

func parsePos(xs, ys string) (domain.Position, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return domain.Position{}, fmt.Errorf("bad x %q", xs)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return domain.Position{}, fmt.Errorf("bad y %q", ys)
	}
	return domain.Position{X: x, Y: y}, nil
}

// unquote strips one pair of matching double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}
