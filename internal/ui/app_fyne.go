//go:build fyne && cgo

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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"sitebuilder/internal/command"
	"sitebuilder/internal/crash"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/editor"
	"sitebuilder/internal/export"
	"sitebuilder/internal/guides"
	applog "sitebuilder/internal/log"
	"sitebuilder/internal/telemetry"
)

type shell struct {
	w      fyne.Window
	log    *slog.Logger
	root   string
	gwName string
	sess   *editor.Session
	canvas *DesignCanvas
	status *widget.Label

	// armed is the palette kind placed by the next tap on the empty page.
	armed domain.Kind

	fields     map[domain.Property]*widget.Entry
	selLabel   *widget.Label
	notices    []editor.Notice
	noticeList *widget.List
	undoBtn    *widget.Button
	redoBtn    *widget.Button
}

// Run opens the design in opts.Dir in a desktop editor window and blocks until it is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	if opts.Gateway == nil {
		return errors.New("ui: no gateway factory configured")
	}

	fyneApp := app.NewWithID("sitebuilder")
	prefs := fyneApp.Preferences()
	dir := opts.Dir
	if dir == "" {
		dir = "."
		if recent := loadRecentDesigns(prefs); len(recent) > 0 {
			dir = recent[0]
		}
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve design dir: %w", err)
	}
	gw, gwName, err := opts.Gateway(root)
	if err != nil {
		return err
	}
	l.Info("starting UI", slog.String("root", root), slog.String("gateway", gwName))

	s := &shell{
		log:    l,
		root:   root,
		gwName: gwName,
		canvas: NewDesignCanvas(),
		status: widget.NewLabel("Ready"),
		fields: make(map[domain.Property]*widget.Entry),
	}
	sopts := editor.OptionsFrom(opts.Config)
	sopts.Gateway = gw
	sopts.Surface = s.canvas
	sopts.Logger = l
	s.sess = editor.New(sopts)
	defer crash.Recover(root, s.sess.Snapshot)

	s.w = fyneApp.NewWindow("SiteBuilder - " + filepath.Base(root))
	// Restore window size from preferences (with sane minimums)
	winW := max(prefs.IntWithFallback("window.width", 1280), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	s.w.Resize(fyne.NewSize(float32(winW), float32(winH)))
	s.w.SetOnClosed(func() {
		sz := s.w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})

	if err := s.sess.Load(context.Background()); err != nil {
		s.status.SetText("Load failed: " + err.Error())
	} else {
		_, cursor := s.sess.History()
		s.status.SetText(fmt.Sprintf("Opened %s: %d elements, history at %d", root, len(s.sess.Elements()), cursor))
	}
	addRecentDesign(prefs, root)
	if opts.Config.Editor.GridSize > 0 && prefs.BoolWithFallback("canvas.grid", false) {
		s.canvas.SetGrid(opts.Config.Editor.GridSize)
	}
	s.canvas.SetViewMode(s.sess.ViewMode())
	s.wireCanvas()

	s.w.SetContent(s.layout(prefs, opts.Config.Editor.GridSize))
	s.w.SetMainMenu(s.menu())
	s.shortcuts()
	s.refresh()
	s.w.ShowAndRun()

	s.sess.Wait()
	l.Info("UI closed")
	return nil
}

func (s *shell) wireCanvas() {
	c := s.canvas
	c.OnSelect = func(id string) {
		if id == "" {
			s.sess.ClearSelection()
		} else if err := s.sess.Select(id); err != nil {
			s.report(err)
		}
		s.refresh()
	}
	c.OnTapEmpty = func(p domain.Position) {
		if s.armed == "" {
			return
		}
		k := s.armed
		s.armed = ""
		e, err := s.sess.OnDropCreate(k, p)
		if err != nil {
			s.report(err)
			return
		}
		_ = s.sess.Select(e.ID)
		s.canvas.Highlight(e.ID)
		s.status.SetText(fmt.Sprintf("Added %s at %s", e.ID, e.Position))
		s.refresh()
	}
	c.OnDragStart = func(id string) {
		if err := s.sess.OnDragStart(id); err != nil {
			s.report(err)
		}
		_ = s.sess.Select(id)
	}
	c.OnDragMove = func(id string, p domain.Position) {
		if err := s.sess.OnDragMove(id, p); err != nil {
			s.log.Debug("drag move ignored", slog.String("id", id), slog.Any("err", err))
		}
	}
	c.OnDragEnd = func(id string, p domain.Position) {
		moved, err := s.sess.OnDragEnd(id, p)
		if err != nil {
			s.report(err)
			return
		}
		if moved {
			s.status.SetText(fmt.Sprintf("Moved %s to %s", id, p))
		}
		s.refresh()
	}
}

func (s *shell) layout(prefs fyne.Preferences, gridSize int) fyne.CanvasObject {
	kinds := domain.Kinds()
	palette := widget.NewList(
		func() int { return len(kinds) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(string(kinds[i])) },
	)
	palette.OnSelected = func(i widget.ListItemID) {
		s.armed = kinds[i]
		s.status.SetText(fmt.Sprintf("Tap the page to place a %s", kinds[i]))
		palette.UnselectAll()
	}
	left := container.NewBorder(container.NewVBox(widget.NewLabel("Elements"), widget.NewSeparator()), nil, nil, nil, palette)

	s.selLabel = widget.NewLabel("Nothing selected")
	form := widget.NewForm()
	for _, p := range domain.Properties() {
		e := widget.NewEntry()
		e.OnSubmitted = func(v string) { s.setProperty(p, v) }
		s.fields[p] = e
		form.Append(string(p), e)
	}
	dupBtn := widget.NewButton("Duplicate", s.duplicateSelected)
	delBtn := widget.NewButton("Delete", s.deleteSelected)

	s.noticeList = widget.NewList(
		func() int { return len(s.notices) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			n := s.notices[i]
			o.(*widget.Label).SetText(fmt.Sprintf("[%s] %s", n.Level, n.Message))
		},
	)
	// Selecting a notice dismisses it.
	s.noticeList.OnSelected = func(i widget.ListItemID) {
		if int(i) < len(s.notices) {
			s.sess.Notices().Dismiss(s.notices[i].ID)
		}
		s.noticeList.UnselectAll()
		s.refresh()
	}
	right := container.NewBorder(
		container.NewVBox(widget.NewLabel("Properties"), widget.NewSeparator(), s.selLabel, form, container.NewHBox(dupBtn, delBtn), widget.NewSeparator(), widget.NewLabel("Notices")),
		nil, nil, nil, s.noticeList)

	s.undoBtn = widget.NewButton("Undo", s.undo)
	s.redoBtn = widget.NewButton("Redo", s.redo)
	modes := []string{string(domain.ViewDesktop), string(domain.ViewTablet), string(domain.ViewMobile)}
	view := widget.NewSelect(modes, func(v string) {
		if err := s.sess.SetViewMode(domain.ViewMode(v)); err != nil {
			s.report(err)
			return
		}
		s.canvas.SetViewMode(s.sess.ViewMode())
	})
	view.SetSelected(string(s.sess.ViewMode()))
	grid := widget.NewCheck("Grid", func(on bool) {
		prefs.SetBool("canvas.grid", on)
		if on {
			s.canvas.SetGrid(gridSize)
		} else {
			s.canvas.SetGrid(0)
		}
	})
	grid.SetChecked(prefs.BoolWithFallback("canvas.grid", false))
	snap := widget.NewCheck("Snap", func(on bool) { s.sess.SetSnapToGrid(on) })
	snap.SetChecked(s.sess.SnapToGrid())
	align := widget.NewCheck("Guides", func(on bool) {
		prefs.SetBool("canvas.guides", on)
		s.canvas.Snap = guides.Options{Edges: on, Centers: on}
	})
	align.SetChecked(prefs.BoolWithFallback("canvas.guides", true))
	if gridSize <= 0 {
		grid.Disable()
		snap.Disable()
	}
	toolbar := container.NewHBox(
		s.undoBtn, s.redoBtn, widget.NewSeparator(),
		widget.NewButton("Save", s.save), widget.NewButton("Publish", s.publish), widget.NewButton("Export...", s.exportDialog),
		widget.NewSeparator(), widget.NewLabel("View"), view, grid, snap, align,
	)

	split := container.NewHSplit(left, container.NewHSplit(s.canvas, right))
	split.Offset = 0.15
	return container.NewBorder(toolbar, s.status, nil, nil, split)
}

func (s *shell) menu() *fyne.MainMenu {
	file := fyne.NewMenu("File",
		fyne.NewMenuItem("Save", s.save),
		fyne.NewMenuItem("Publish", s.publish),
		fyne.NewMenuItem("Export...", s.exportDialog),
	)
	edit := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", s.undo),
		fyne.NewMenuItem("Redo", s.redo),
		fyne.NewMenuItem("Duplicate", s.duplicateSelected),
		fyne.NewMenuItem("Delete", s.deleteSelected),
	)
	return fyne.NewMainMenu(file, edit)
}

func (s *shell) shortcuts() {
	cv := s.w.Canvas()
	cv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { s.undo() })
	cv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { s.redo() })
	cv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { s.save() })
	cv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyD, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { s.duplicateSelected() })
	cv.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyDelete {
			s.deleteSelected()
		}
	})
}

// refresh syncs the inspector, history buttons and notices with the session.
func (s *shell) refresh() {
	id, ok := s.sess.Selected()
	s.canvas.Highlight(id)
	var e domain.Element
	if ok {
		e, ok = s.sess.Element(id)
	}
	if ok {
		s.selLabel.SetText(fmt.Sprintf("%s (%s) at %s", e.ID, e.Kind, e.Position))
	} else {
		s.selLabel.SetText("Nothing selected")
	}
	for p, entry := range s.fields {
		v := ""
		if ok {
			v, _ = command.PropertyValue(e, p)
		}
		entry.SetText(v)
		if ok {
			entry.Enable()
		} else {
			entry.Disable()
		}
	}
	if s.undoBtn != nil {
		setEnabled(s.undoBtn, s.sess.CanUndo())
		setEnabled(s.redoBtn, s.sess.CanRedo())
	}
	s.notices = s.sess.Notices().List()
	if s.noticeList != nil {
		s.noticeList.Refresh()
	}
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (s *shell) report(err error) {
	s.log.Warn("edit rejected", slog.Any("err", err))
	s.status.SetText("Error: " + err.Error())
}

func (s *shell) setProperty(p domain.Property, v string) {
	id, ok := s.sess.Selected()
	if !ok {
		return
	}
	changed, err := s.sess.OnPropertyChange(id, p, v)
	if err != nil {
		s.report(err)
		return
	}
	if changed {
		s.status.SetText(fmt.Sprintf("Set %s of %s", p, id))
	}
	s.refresh()
}

func (s *shell) deleteSelected() {
	id, ok := s.sess.Selected()
	if !ok {
		return
	}
	if err := s.sess.OnDelete(id); err != nil {
		s.report(err)
		return
	}
	s.status.SetText("Deleted " + id)
	s.refresh()
}

func (s *shell) duplicateSelected() {
	id, ok := s.sess.Selected()
	if !ok {
		return
	}
	c, err := s.sess.OnDuplicate(id)
	if err != nil {
		s.report(err)
		return
	}
	_ = s.sess.Select(c.ID)
	s.status.SetText("Duplicated " + id + " as " + c.ID)
	s.refresh()
}

func (s *shell) undo() {
	if s.sess.Undo() {
		s.status.SetText("Undo")
	}
	s.refresh()
}

func (s *shell) redo() {
	if s.sess.Redo() {
		s.status.SetText("Redo")
	}
	s.refresh()
}

func (s *shell) save() {
	d, err := s.sess.Snapshot()
	if err != nil {
		s.report(err)
		return
	}
	s.status.SetText("Saving...")
	s.await("save", s.sess.Save(context.Background()), func() {
		telemetry.DesignSaved(s.gwName, len(d.Elements), len(d.History))
	})
}

func (s *shell) publish() {
	n := len(s.sess.Elements())
	s.status.SetText("Publishing...")
	s.await("publish", s.sess.Publish(context.Background()), func() {
		telemetry.DesignPublished(s.gwName, n)
	})
}

// await reports the outcome of a background save or publish on the UI thread.
func (s *shell) await(op string, ch <-chan error, onSuccess func()) {
	go func() {
		err := <-ch
		fyne.Do(func() {
			if err != nil {
				s.status.SetText(fmt.Sprintf("%s failed", op))
			} else {
				s.status.SetText(fmt.Sprintf("%s completed", op))
				onSuccess()
			}
			s.refresh()
		})
	}()
}

func (s *shell) exportDialog() {
	formats := widget.NewCheckGroup([]string{"html", "svg", "pdf", "png", "zip"}, nil)
	formats.SetSelected([]string{"html"})
	out := widget.NewEntry()
	out.SetText(filepath.Join(s.root, "export"))
	items := []*widget.FormItem{
		widget.NewFormItem("Formats", formats),
		widget.NewFormItem("Output", out),
	}
	dialog.ShowForm("Export", "Export", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		fs, err := export.ParseFormats(strings.Join(formats.Selected, ","))
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		elems, mode := s.sess.Elements(), s.sess.ViewMode()
		paths, err := export.WriteAll(context.Background(), out.Text, elems, mode, fs, export.WireframeOptions{Labels: true})
		if err != nil {
			s.log.Error("export failed", slog.Any("err", err))
			dialog.ShowError(err, s.w)
			return
		}
		for _, f := range fs {
			telemetry.DesignExported(string(f), string(mode), len(elems))
		}
		s.log.Info("export completed", slog.Int("files", len(paths)), slog.String("out", out.Text))
		s.status.SetText(fmt.Sprintf("Exported %d files to %s", len(paths), out.Text))
	}, s.w)
}

// Recent design persistence helpers
const recentPrefsKey = "recent.designs"
const recentMax = 10

func loadRecentDesigns(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			items = nil
		}
	}
	// Filter out non-existing paths
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func addRecentDesign(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	out := []string{abs}
	for _, s := range loadRecentDesigns(p) {
		// de-dup (case-insensitive on Windows)
		if strings.EqualFold(s, abs) {
			continue
		}
		out = append(out, s)
	}
	if len(out) > recentMax {
		out = out[:recentMax]
	}
	b, _ := json.Marshal(out)
	p.SetString(recentPrefsKey, string(b))
}
