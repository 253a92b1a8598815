/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sitebuilder/internal/domain"
)

const (
	ManifestFileName  = "design.json"
	BackupsDirName    = "backups"
	PublishedDirName  = "published"
	PublishedFileName = "elements.json"
)

// ErrNoDesign is returned by Open when neither a manifest nor a backup exists.
var ErrNoDesign = errors.New("no design found")

var standardSubDirs = []string{
	BackupsDirName,
	PublishedDirName,
	"exports",
}

// DesignHandle keeps track of the design loaded/saved from disk.
// Root is the design directory containing design.json and subfolders.
// Issues lists what was repaired while decoding the manifest.
type DesignHandle struct {
	Root         string
	ManifestPath string
	Design       domain.Design
	Issues       []string
}

// InitDesign creates a new design directory at root (creating it if it doesn't exist),
// scaffolds the standard subfolders, and writes the given manifest transactionally.
func InitDesign(root string, d domain.Design) (*DesignHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	d.Normalize()
	ph := &DesignHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Design:       d,
	}
	if err := Save(ph); err != nil {
		return nil, err
	}
	return ph, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create design root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads an existing design from root.
// If the manifest cannot be read or parsed, the latest backup is used instead.
func Open(root string) (*DesignHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		d, issues, berr := openFromLatestBackup(root)
		if berr != nil {
			if errors.Is(err, os.ErrNotExist) && errors.Is(berr, ErrNoDesign) {
				return nil, ErrNoDesign
			}
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &DesignHandle{Root: root, ManifestPath: mpath, Design: d, Issues: append(issues, "manifest unreadable; restored from backup")}, nil
	}
	d, issues, uerr := domain.DecodeDesign(b)
	if uerr != nil {
		bd, bissues, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &DesignHandle{Root: root, ManifestPath: mpath, Design: bd, Issues: append(bissues, "manifest corrupt; restored from backup")}, nil
	}
	return &DesignHandle{Root: root, ManifestPath: mpath, Design: d, Issues: issues}, nil
}

// Save writes ph.Design to disk with transactional semantics
// and a timestamped backup of the previous manifest (if present).
func Save(ph *DesignHandle) error {
	if ph == nil {
		return errors.New("nil DesignHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid DesignHandle: missing paths")
	}
	data, err := domain.EncodeDesign(ph.Design)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(ph.ManifestPath); statErr == nil {
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp(time.Now())))
		if cerr := copyFile(ph.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}
	if err := replaceFile(ph.ManifestPath, data); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// stamp formats t so that lexicographic order matches time order.
func stamp(t time.Time) string { return t.Format("20060102-150405.000000") }

// replaceFile writes data to a temp file in the target's directory and renames it over path.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return err
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// backupFiles lists manifest backups oldest first.
func backupFiles(root string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// openFromLatestBackup tries the backups newest first and returns the first one that decodes.
func openFromLatestBackup(root string) (domain.Design, []string, error) {
	candidates, err := backupFiles(root)
	if err != nil {
		return domain.Design{}, nil, err
	}
	if len(candidates) == 0 {
		return domain.Design{}, nil, ErrNoDesign
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = err
			continue
		}
		d, issues, err := domain.DecodeDesign(b)
		if err != nil {
			lastErr = err
			continue
		}
		return d, issues, nil
	}
	return domain.Design{}, nil, fmt.Errorf("no readable backup: %w", lastErr)
}

// PruneBackups keeps the newest keep manifest backups and removes the rest.
func PruneBackups(root string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	files, err := backupFiles(root)
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := 0; i < len(files)-keep; i++ {
		if err := os.Remove(files[i]); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
