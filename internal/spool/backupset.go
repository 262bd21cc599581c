package spool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/juju/errors"
)

// Names of the convenience symlinks maintained in each backupset
// directory for external tooling.
const (
	OldestLink = "oldest"
	NewestLink = "newest"
)

// Backupset is a named collection of backups under one directory. Like
// Backup it is a stateless handle: every operation re-reads the
// filesystem, and a Backupset exists on disk iff its directory does.
type Backupset struct {
	// Name is the backupset identifier, the directory basename.
	Name string
	// Path is the backupset directory under the spool root.
	Path string
}

// FindBackup looks up a backup by its timestamp name. It returns nil when
// no such directory exists. The lookup is by exact name and does not
// enforce the timestamp pattern.
func (bs *Backupset) FindBackup(name string) *Backup {
	path := filepath.Join(bs.Path, name)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return NewBackup(path, bs.Name, name)
}

// AddBackup creates a new backup named after the current local time and
// prepares its directory on disk, creating the backupset directory too if
// this is the first backup. Two calls within the same second collide on
// directory creation and the second fails; there is no disambiguation.
// The caller populates config fields and calls Flush.
func (bs *Backupset) AddBackup() (*Backup, error) {
	name := TimestampName(time.Now())
	b := NewBackup(filepath.Join(bs.Path, name), bs.Name, name)
	if err := b.Prepare(); err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

// ListBackups returns the backupset's backups sorted ascending by name
// (descending when reverse is set). Name order equals creation order by
// the timestamp format. Entries that are symlinks, non-directories, or
// whose name is not a well-formed timestamp are skipped. A non-existent
// backupset directory yields nil, indistinguishable from an empty one.
func (bs *Backupset) ListBackups(reverse bool) []*Backup {
	entries, err := os.ReadDir(bs.Path)
	if err != nil {
		return nil
	}

	var backups []*Backup
	for _, entry := range entries {
		// ReadDir reports symlinks by their link type, so symlinked
		// directories (oldest/newest) fail the IsDir check here.
		if !entry.IsDir() || !ValidTimestampName(entry.Name()) {
			continue
		}
		backups = append(backups, NewBackup(filepath.Join(bs.Path, entry.Name()), bs.Name, entry.Name()))
	}

	sort.Slice(backups, func(i, j int) bool {
		if reverse {
			return backups[i].Name > backups[j].Name
		}
		return backups[i].Name < backups[j].Name
	})
	return backups
}

// Purge plans removal of all but the retentionCount newest backups and
// returns an iterator that deletes one backup per Next call, oldest
// first. Nothing is removed before the first Next, and abandoning the
// iterator early leaves the remaining candidates intact. A retention
// count of zero purges everything.
func (bs *Backupset) Purge(retentionCount int) (*PurgeIter, error) {
	if retentionCount < 0 {
		return nil, errors.NotValidf("retention count %d", retentionCount)
	}
	newestFirst := bs.ListBackups(true)
	if retentionCount >= len(newestFirst) {
		return &PurgeIter{}, nil
	}
	doomed := newestFirst[retentionCount:]
	// Delete oldest first so an interrupted purge keeps the most recent
	// of the expired backups.
	for i, j := 0, len(doomed)-1; i < j; i, j = i+1, j-1 {
		doomed[i], doomed[j] = doomed[j], doomed[i]
	}
	return &PurgeIter{pending: doomed}, nil
}

// UpdateSymlinks refreshes the oldest and newest convenience links to the
// extremes of the current backup listing. It is a no-op when enable is
// false. Both links are removed first, so a concurrent reader can observe
// a window with neither link; with zero backups that state is terminal.
func (bs *Backupset) UpdateSymlinks(enable bool) error {
	if !enable {
		return nil
	}

	backups := bs.ListBackups(false)

	oldestLink := filepath.Join(bs.Path, OldestLink)
	newestLink := filepath.Join(bs.Path, NewestLink)
	for _, link := range []string{oldestLink, newestLink} {
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return errors.Annotatef(err, "removing symlink %s", link)
		}
	}
	if len(backups) == 0 {
		return nil
	}
	if err := os.Symlink(backups[0].Path, oldestLink); err != nil {
		return errors.Trace(err)
	}
	if err := os.Symlink(backups[len(backups)-1].Path, newestLink); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// String implements fmt.Stringer.
func (bs *Backupset) String() string {
	return fmt.Sprintf("%s [%s]", bs.Name, bs.Path)
}

// PurgeIter walks a planned purge. Each Next call removes exactly one
// backup from disk before yielding it, so consumption order equals
// deletion order and an early stop leaves the rest un-purged. After Next
// returns false, Err distinguishes completion from a failed removal.
type PurgeIter struct {
	pending []*Backup
	err     error
}

// Next purges and returns the next backup. It returns false when the plan
// is exhausted or a removal failed; nothing is rolled back either way.
func (it *PurgeIter) Next() (*Backup, bool) {
	if it.err != nil || len(it.pending) == 0 {
		return nil, false
	}
	b := it.pending[0]
	if err := b.Purge(); err != nil {
		it.err = err
		return nil, false
	}
	it.pending = it.pending[1:]
	return b, true
}

// Err returns the removal error that stopped the iterator, if any.
func (it *PurgeIter) Err() error {
	return it.err
}
