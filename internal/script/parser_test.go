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
	"testing"

	"github.com/google/go-cmp/cmp"

	"sitebuilder/internal/domain"
)

func TestParseScript(t *testing.T) {
	input := `# landing page
add button 10 20
  set $ text   Buy  now
set @ background "#ff0000"
; moves
move button-1 -5 40
duplicate $
rm @
view Tablet
undo
redo
ls
save
publish`

	cmds, errs := Parse(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	want := []Command{
		{Op: OpAdd, Kind: domain.KindButton, Pos: domain.Position{X: 10, Y: 20}, LineNo: 2},
		{Op: OpSet, ID: "$", Property: domain.PropText, Value: "Buy  now", LineNo: 3},
		{Op: OpSet, ID: "@", Property: domain.PropBackgroundColor, Value: "#ff0000", LineNo: 4},
		{Op: OpMove, ID: "button-1", Pos: domain.Position{X: -5, Y: 40}, LineNo: 6},
		{Op: OpDuplicate, ID: "$", LineNo: 7},
		{Op: OpDelete, ID: "@", LineNo: 8},
		{Op: OpView, View: domain.ViewTablet, LineNo: 9},
		{Op: OpUndo, LineNo: 10},
		{Op: OpRedo, LineNo: 11},
		{Op: OpList, LineNo: 12},
		{Op: OpSave, LineNo: 13},
		{Op: OpPublish, LineNo: 14},
	}
	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Fatalf("commands (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	input := `bogus
add widget 1 2
add text x 2
move a 1
set a width
set a size 10
view watch
delete bad/id
undo now`

	cmds, errs := Parse(input)
	if len(cmds) != 0 {
		t.Fatalf("expected no commands, got %+v", cmds)
	}
	if len(errs) != 9 {
		t.Fatalf("expected 9 errors, got %d: %+v", len(errs), errs)
	}
	for i, e := range errs {
		if e.Line != i+1 {
			t.Fatalf("error %d on line %d", i, e.Line)
		}
	}
	if errs[0].Column != 1 || errs[0].Error() != `line 1: unknown command "bogus"` {
		t.Fatalf("unexpected first error: %+v", errs[0])
	}
	if errs[1].Column != 5 {
		t.Fatalf("argument errors should point at the arguments, got column %d", errs[1].Column)
	}
}

func TestParseLineSkipsCommentsAndBlank(t *testing.T) {
	for _, line := range []string{"", "   ", "# heading", "; note"} {
		if _, ok, err := ParseLine(line, 1); ok || err != nil {
			t.Fatalf("ParseLine(%q) = ok %v, err %v", line, ok, err)
		}
	}
}
