// Package spool maintains the on-disk registry of backup artifacts:
// a spool root containing named backupsets, each holding timestamped
// backup directories with a backup.conf metadata file.
//
// The directory tree is the only source of truth. Spool, Backupset and
// Backup are stateless handles over paths; every listing re-reads the
// filesystem and nothing is cached between calls. There is no locking:
// operations are safe to interrupt and safe to re-run, and two writers
// racing on the same backupset fail loudly on directory creation rather
// than silently merging.
package spool

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultPath is the conventional spool root.
const DefaultPath = "/var/spool/holland"

// Spool is the root registry of backupsets. The zero value is not
// usable; construct one with New.
type Spool struct {
	// Path is the spool root directory. It need not exist until a
	// backupset is created; listings against a missing root are empty.
	Path string
}

// New returns a Spool rooted at path, or at DefaultPath when path is
// empty.
func New(path string) *Spool {
	if path == "" {
		path = DefaultPath
	}
	return &Spool{Path: path}
}

// FindBackup looks up a backup by its compound <backupset>/<timestamp>
// name. A malformed name is logged and reported as absent, and a
// well-formed name that matches nothing returns nil without error.
func (s *Spool) FindBackup(name string) *Backup {
	backupsetName, timestamp, ok := splitBackupName(name)
	if !ok {
		log.Warningf("Invalid backup name: %s", name)
		return nil
	}
	backupset := s.FindBackupset(backupsetName)
	if backupset == nil {
		return nil
	}
	return backupset.FindBackup(timestamp)
}

// splitBackupName parses <backupset>/<timestamp>, requiring exactly one
// separator and two non-empty parts.
func splitBackupName(name string) (backupset, timestamp string, ok bool) {
	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// FindBackupset returns a handle for the named backupset if its
// directory exists, else nil. It never mutates disk.
func (s *Spool) FindBackupset(name string) *Backupset {
	path := filepath.Join(s.Path, name)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return &Backupset{Name: name, Path: path}
}

// AddBackupset returns an in-memory handle for a new backupset. It fails
// if the directory already exists. It does not create the directory;
// that happens as a side effect of the first backup's Prepare.
func (s *Spool) AddBackupset(name string) (*Backupset, error) {
	path := filepath.Join(s.Path, name)
	if _, err := os.Stat(path); err == nil {
		return nil, errors.AlreadyExistsf("backupset %s", name)
	}
	return &Backupset{Name: name, Path: path}, nil
}

// AddBackup creates a new backup in the named backupset, creating the
// backupset first when it does not exist yet. This is the only entry
// point combining both steps.
func (s *Spool) AddBackup(backupsetName string) (*Backup, error) {
	backupset := s.FindBackupset(backupsetName)
	if backupset == nil {
		var err error
		backupset, err = s.AddBackupset(backupsetName)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	return backupset.AddBackup()
}

// ListBackupsets returns the spool's backupsets sorted ascending by name
// (descending when reverse is set). A non-empty name restricts the result
// to that single backupset when it exists. A missing spool root yields an
// empty result, never an error.
func (s *Spool) ListBackupsets(name string, reverse bool) []*Backupset {
	var dirs []string
	if name != "" {
		if _, err := os.Stat(filepath.Join(s.Path, name)); err != nil {
			return nil
		}
		dirs = []string{name}
	} else {
		entries, err := os.ReadDir(s.Path)
		if err != nil {
			return nil
		}
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, entry.Name())
			}
		}
	}

	backupsets := make([]*Backupset, 0, len(dirs))
	for _, d := range dirs {
		backupsets = append(backupsets, &Backupset{Name: d, Path: filepath.Join(s.Path, d)})
	}
	sort.Slice(backupsets, func(i, j int) bool {
		if reverse {
			return backupsets[i].Name > backupsets[j].Name
		}
		return backupsets[i].Name < backupsets[j].Name
	})
	return backupsets
}

// ListBackups flattens the backup listings of every backupset (or of the
// single named one) in backupset order, each set's backups ascending.
func (s *Spool) ListBackups(backupsetName string) []*Backup {
	var backups []*Backup
	for _, backupset := range s.ListBackupsets(backupsetName, false) {
		backups = append(backups, backupset.ListBackups(false)...)
	}
	return backups
}
