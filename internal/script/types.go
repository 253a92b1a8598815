/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package script parses the line-oriented editing language read by `sitebuilder edit`.
package script

import (
	"fmt"

	"sitebuilder/internal/domain"
)

// Op names an editing command.
type Op string

const (
	OpAdd       Op = "add"
	OpMove      Op = "move"
	OpSet       Op = "set"
	OpDelete    Op = "delete"
	OpDuplicate Op = "dup"
	OpSelect    Op = "select"
	OpView      Op = "view"
	OpUndo      Op = "undo"
	OpRedo      Op = "redo"
	OpList      Op = "list"
	OpHistory   Op = "history"
	OpNotices   Op = "notices"
	OpSave      Op = "save"
	OpPublish   Op = "publish"
)

// Command is one parsed line. Only the fields used by Op are set.
// ID may be one of the placeholders "$" (last created element) or "@" (selection);
// the caller resolves them.
type Command struct {
	Op       Op
	Kind     domain.Kind
	ID       string
	Pos      domain.Position
	Property domain.Property
	Value    string
	View     domain.ViewMode
	LineNo   int // 1-based line number in the source
}

// Error represents a parse error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }
