package spool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBackupset creates a backupset directory populated with the given
// backup directory names.
func newTestBackupset(t *testing.T, names ...string) *Backupset {
	t.Helper()
	root := t.TempDir()
	bs := &Backupset{Name: "mysql", Path: filepath.Join(root, "mysql")}
	require.NoError(t, os.Mkdir(bs.Path, 0o755))
	for _, name := range names {
		require.NoError(t, os.Mkdir(filepath.Join(bs.Path, name), 0o755))
	}
	return bs
}

func backupNames(backups []*Backup) []string {
	names := make([]string, 0, len(backups))
	for _, b := range backups {
		names = append(names, filepath.Base(b.Path))
	}
	return names
}

func TestListBackupsSorted(t *testing.T) {
	bs := newTestBackupset(t, "20240301_120000", "20240101_120000", "20240201_120000")

	asc := bs.ListBackups(false)
	assert.Equal(t, []string{"20240101_120000", "20240201_120000", "20240301_120000"}, backupNames(asc))

	desc := bs.ListBackups(true)
	assert.Equal(t, []string{"20240301_120000", "20240201_120000", "20240101_120000"}, backupNames(desc))
}

func TestListBackupsMissingDirectory(t *testing.T) {
	bs := &Backupset{Name: "ghost", Path: filepath.Join(t.TempDir(), "ghost")}
	assert.Empty(t, bs.ListBackups(false))
}

func TestListBackupsSkipsForeignEntries(t *testing.T) {
	bs := newTestBackupset(t, "20240101_120000")

	// A real subdirectory that is not timestamp-named is invisible.
	require.NoError(t, os.Mkdir(filepath.Join(bs.Path, "scratch"), 0o755))
	// Plain files are invisible.
	require.NoError(t, os.WriteFile(filepath.Join(bs.Path, "notes.txt"), []byte("x"), 0o644))
	// Symlinks are invisible even when they point at a backup directory
	// and carry a timestamp-shaped name.
	require.NoError(t, os.Symlink(
		filepath.Join(bs.Path, "20240101_120000"),
		filepath.Join(bs.Path, "20240102_120000")))
	require.NoError(t, bs.UpdateSymlinks(true))

	assert.Equal(t, []string{"20240101_120000"}, backupNames(bs.ListBackups(false)))
}

func TestFindBackup(t *testing.T) {
	bs := newTestBackupset(t, "20240101_120000")

	b := bs.FindBackup("20240101_120000")
	require.NotNil(t, b)
	assert.Equal(t, "mysql/20240101_120000", b.Name)

	assert.Nil(t, bs.FindBackup("20240102_120000"))
}

func TestAddBackup(t *testing.T) {
	root := t.TempDir()
	bs := &Backupset{Name: "mysql", Path: filepath.Join(root, "mysql")}

	b, err := bs.AddBackup()
	require.NoError(t, err)
	assert.True(t, b.Exists())
	assert.True(t, ValidTimestampName(filepath.Base(b.Path)))

	// No config file until the caller flushes.
	_, statErr := os.Stat(b.Config.Path)
	assert.True(t, os.IsNotExist(statErr))

	// The backupset directory was created as a side effect.
	info, err := os.Stat(bs.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPurgeNegativeRetention(t *testing.T) {
	bs := newTestBackupset(t, "20240101_120000")

	_, err := bs.Purge(-1)
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(err))
	// Nothing was removed.
	assert.Len(t, bs.ListBackups(false), 1)
}

func TestPurgeKeepsNewest(t *testing.T) {
	bs := newTestBackupset(t,
		"20240101_120000", "20240102_120000", "20240103_120000", "20240104_120000")

	iter, err := bs.Purge(2)
	require.NoError(t, err)

	var purged []string
	for {
		b, ok := iter.Next()
		if !ok {
			break
		}
		purged = append(purged, filepath.Base(b.Path))
		assert.False(t, b.Exists())
	}
	require.NoError(t, iter.Err())

	// The two oldest go, oldest first; the two newest stay.
	assert.Equal(t, []string{"20240101_120000", "20240102_120000"}, purged)
	assert.Equal(t, []string{"20240103_120000", "20240104_120000"}, backupNames(bs.ListBackups(false)))
}

func TestPurgeZeroRemovesEverything(t *testing.T) {
	bs := newTestBackupset(t, "20240101_120000", "20240102_120000")

	iter, err := bs.Purge(0)
	require.NoError(t, err)
	n := 0
	for {
		if _, ok := iter.Next(); !ok {
			break
		}
		n++
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, 2, n)
	assert.Empty(t, bs.ListBackups(false))

	require.NoError(t, bs.UpdateSymlinks(true))
	_, err = os.Lstat(filepath.Join(bs.Path, OldestLink))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(filepath.Join(bs.Path, NewestLink))
	assert.True(t, os.IsNotExist(err))
}

func TestPurgeRetentionExceedsCount(t *testing.T) {
	bs := newTestBackupset(t, "20240101_120000", "20240102_120000")

	iter, err := bs.Purge(5)
	require.NoError(t, err)
	_, ok := iter.Next()
	assert.False(t, ok)
	require.NoError(t, iter.Err())
	assert.Len(t, bs.ListBackups(false), 2)
}

func TestPurgeStopsLazily(t *testing.T) {
	bs := newTestBackupset(t,
		"20240101_120000", "20240102_120000", "20240103_120000")

	iter, err := bs.Purge(0)
	require.NoError(t, err)

	// Consume a single step and abandon the iterator: exactly one backup
	// is gone, the remainder stays intact.
	b, ok := iter.Next()
	require.True(t, ok)
	assert.Equal(t, "20240101_120000", filepath.Base(b.Path))

	assert.Equal(t, []string{"20240102_120000", "20240103_120000"}, backupNames(bs.ListBackups(false)))
}

func TestUpdateSymlinks(t *testing.T) {
	bs := newTestBackupset(t,
		"20240101_120000", "20240102_120000", "20240103_120000")

	require.NoError(t, bs.UpdateSymlinks(true))

	oldest, err := os.Readlink(filepath.Join(bs.Path, OldestLink))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bs.Path, "20240101_120000"), oldest)

	newest, err := os.Readlink(filepath.Join(bs.Path, NewestLink))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bs.Path, "20240103_120000"), newest)
}

func TestUpdateSymlinksRefreshesStaleLinks(t *testing.T) {
	bs := newTestBackupset(t, "20240101_120000", "20240102_120000")
	require.NoError(t, bs.UpdateSymlinks(true))

	// Drop the oldest backup and refresh: both links must follow.
	require.NoError(t, os.RemoveAll(filepath.Join(bs.Path, "20240101_120000")))
	require.NoError(t, bs.UpdateSymlinks(true))

	oldest, err := os.Readlink(filepath.Join(bs.Path, OldestLink))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bs.Path, "20240102_120000"), oldest)

	newest, err := os.Readlink(filepath.Join(bs.Path, NewestLink))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bs.Path, "20240102_120000"), newest)
}

func TestUpdateSymlinksDisabled(t *testing.T) {
	bs := newTestBackupset(t, "20240101_120000")

	require.NoError(t, bs.UpdateSymlinks(false))
	_, err := os.Lstat(filepath.Join(bs.Path, OldestLink))
	assert.True(t, os.IsNotExist(err))
}
