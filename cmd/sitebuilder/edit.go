/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"sitebuilder/internal/action"
	"sitebuilder/internal/crash"
	"sitebuilder/internal/editor"
	editscript "sitebuilder/internal/script"
	"sitebuilder/internal/telemetry"
)

const editHelp = `Commands (one per line, # or ; starts a comment):
  add <kind> <x> <y>          place a new element
  move <id> <x> <y>           drag an element to a new position
  set <id> <property> <value> change a property (text, color, background-color, font-size, width, height)
  delete <id>                 remove an element
  dup <id>                    duplicate an element
  select <id>                 select an element
  view <mode>                 switch to desktop, tablet or mobile
  undo | redo                 step through the edit history
  list | history | notices    print the elements, the history or open notices
  save | publish              persist the design or publish its elements
Ids may be written as $ (last created element) or @ (selected element).`

func newEditCmd(c *cli) *cobra.Command {
	var saveOnExit bool
	cmd := &cobra.Command{
		Use:   "edit [dir]",
		Short: "Apply editing commands read from stdin to the design",
		Long:  editHelp,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			gw, gwName, err := c.openGateway(root)
			if err != nil {
				return err
			}
			opts := editor.OptionsFrom(c.cfg)
			opts.Gateway = gw
			s := &script{
				ctx:    cmd.Context(),
				sess:   editor.New(opts),
				out:    cmd.OutOrStdout(),
				gwName: gwName,
			}
			if s.ctx == nil {
				s.ctx = context.Background()
			}
			defer crash.Recover(root, s.sess.Snapshot)
			if err := s.sess.Load(s.ctx); err != nil {
				return err
			}
			failed := s.run(cmd.InOrStdin())
			if saveOnExit {
				if err := s.exec(editscript.Command{Op: editscript.OpSave}); err != nil {
					return err
				}
			}
			s.sess.Wait()
			if failed > 0 {
				c.log.Warn("edit finished with rejected commands", slog.Int("rejected", failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&saveOnExit, "save", false, "save the design when input ends")
	return cmd
}

// script drives an editor session from text commands.
type script struct {
	ctx    context.Context
	sess   *editor.Session
	out    io.Writer
	gwName string
	last   string
}

// run executes every line of r and returns the number of rejected commands.
func (s *script) run(r io.Reader) int {
	failed := 0
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		c, ok, perr := editscript.ParseLine(sc.Text(), n)
		if perr != nil {
			failed++
			fmt.Fprintln(s.out, perr.Error())
			continue
		}
		if !ok {
			continue
		}
		if err := s.exec(c); err != nil {
			failed++
			fmt.Fprintf(s.out, "line %d: %v\n", n, err)
		}
	}
	return failed
}

func (s *script) exec(c editscript.Command) error {
	id := s.resolve(c.ID)
	switch c.Op {
	case editscript.OpAdd:
		e, err := s.sess.OnDropCreate(c.Kind, c.Pos)
		if err != nil {
			return err
		}
		s.last = e.ID
		fmt.Fprintf(s.out, "added %s at %s\n", e.ID, e.Position)
	case editscript.OpMove:
		if err := s.sess.OnDragStart(id); err != nil {
			return err
		}
		moved, err := s.sess.OnDragEnd(id, c.Pos)
		if err != nil {
			return err
		}
		if moved {
			fmt.Fprintf(s.out, "moved %s to %s\n", id, c.Pos)
		}
	case editscript.OpSet:
		changed, err := s.sess.OnPropertyChange(id, c.Property, c.Value)
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprintf(s.out, "set %s of %s\n", c.Property, id)
		}
	case editscript.OpDelete:
		if err := s.sess.OnDelete(id); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "deleted %s\n", id)
	case editscript.OpDuplicate:
		e, err := s.sess.OnDuplicate(id)
		if err != nil {
			return err
		}
		s.last = e.ID
		fmt.Fprintf(s.out, "duplicated as %s at %s\n", e.ID, e.Position)
	case editscript.OpSelect:
		return s.sess.Select(id)
	case editscript.OpView:
		return s.sess.SetViewMode(c.View)
	case editscript.OpUndo:
		if !s.sess.Undo() {
			fmt.Fprintln(s.out, "nothing to undo")
		}
	case editscript.OpRedo:
		if !s.sess.Redo() {
			fmt.Fprintln(s.out, "nothing to redo")
		}
	case editscript.OpList:
		for _, e := range s.sess.Elements() {
			fmt.Fprintf(s.out, "%s %s %s\n", e.ID, e.Kind, e.Position)
		}
	case editscript.OpHistory:
		entries, cursor := s.sess.History()
		for i, a := range entries {
			mark := " "
			if i == cursor {
				mark = ">"
			}
			fmt.Fprintf(s.out, "%s %d %s\n", mark, i, action.Describe(a))
		}
	case editscript.OpNotices:
		for _, n := range s.sess.Notices().List() {
			fmt.Fprintf(s.out, "[%s] %s\n", n.Level, n.Message)
		}
	case editscript.OpSave:
		d, err := s.sess.Snapshot()
		if err != nil {
			return err
		}
		if err := <-s.sess.Save(s.ctx); err != nil {
			return err
		}
		telemetry.DesignSaved(s.gwName, len(d.Elements), len(d.History))
		fmt.Fprintf(s.out, "saved %d elements\n", len(d.Elements))
	case editscript.OpPublish:
		n := len(s.sess.Elements())
		if err := <-s.sess.Publish(s.ctx); err != nil {
			return err
		}
		telemetry.DesignPublished(s.gwName, n)
		fmt.Fprintf(s.out, "published %d elements\n", n)
	}
	return nil
}

// resolve expands $ and @ to the last created and the selected element.
func (s *script) resolve(id string) string {
	switch id {
	case "$":
		return s.last
	case "@":
		sel, _ := s.sess.Selected()
		return sel
	}
	return id
}
