/*
Package snapshot persists the three leave collections as JSON files.

PURPOSE:
  Whole-file snapshotting of in-memory state: users.json, leaves.json and
  holidays.json inside one data directory. Each save writes the complete
  replacement to a temporary file in the same directory and renames it
  into place, so a concurrent reader observes either the old snapshot or
  the new one and never a torn write.

LOAD LENIENCY:
  A missing or unreadable file loads as the empty collection with a
  logged warning. The application keeps running with whatever state it
  can recover; DESIGN.md flags this default as debatable.

BACKUPS:
  Backup copies each existing data file to backups/<name>_<timestamp>.bak
  before destructive operations such as a purge.
*/
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
)

const (
	usersFile    = "users.json"
	leavesFile   = "leaves.json"
	holidaysFile = "holidays.json"
	backupDir    = "backups"
	backupLayout = "20060102_150405"
)

// Store persists snapshots under a single data directory.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load reads the three collections. Missing or corrupt files fall back to
// empty collections with a warning; Load itself never fails.
func (s *Store) Load() (*leave.Snapshot, error) {
	snap := leave.EmptySnapshot()
	loadFile(filepath.Join(s.dir, usersFile), &snap.Users)
	loadFile(filepath.Join(s.dir, leavesFile), &snap.Requests)
	loadFile(filepath.Join(s.dir, holidaysFile), &snap.Holidays)
	if snap.Users == nil {
		snap.Users = make(map[string]leave.User)
	}
	return snap, nil
}

func loadFile(path string, into any) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("snapshot file unreadable, starting empty",
				zap.String("file", path), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, into); err != nil {
		zap.L().Warn("snapshot file corrupt, starting empty",
			zap.String("file", path), zap.Error(err))
	}
}

// Save writes all three collections, each atomically replaced.
func (s *Store) Save(snap *leave.Snapshot) error {
	if err := s.saveFile(usersFile, snap.Users); err != nil {
		return err
	}
	if err := s.saveFile(leavesFile, snap.Requests); err != nil {
		return err
	}
	return s.saveFile(holidaysFile, snap.Holidays)
}

func (s *Store) saveFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Backup copies each existing data file to a timestamped .bak artifact.
func (s *Store) Backup() error {
	dir := filepath.Join(s.dir, backupDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	stamp := time.Now().Format(backupLayout)
	for _, name := range []string{usersFile, leavesFile, holidaysFile} {
		src := filepath.Join(s.dir, name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(dir, fmt.Sprintf("%s_%s.bak", name, stamp))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("backup %s: %w", name, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
