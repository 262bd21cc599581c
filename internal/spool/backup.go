package spool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"backupspool/internal/backupconf"
)

// ConfigName is the metadata file kept inside every backup directory.
const ConfigName = "backup.conf"

// Backup is one timestamped backup artifact directory plus its metadata
// store. It is a stateless handle over a path: constructing one never
// touches anything but the backup.conf file, and two handles for the same
// path are interchangeable.
type Backup struct {
	// Path is the backup directory, <backupset>/<timestamp> under the
	// spool root.
	Path string
	// Backupset is the name of the owning backupset.
	Backupset string
	// Name is the compound <backupset>/<timestamp> name.
	Name string
	// Config is the backup's metadata, bound to <Path>/backup.conf.
	// The Backup exclusively owns this store.
	Config *backupconf.Store
}

// NewBackup returns a handle for the backup directory at path. If a
// backup.conf already exists there it is loaded and validated; otherwise
// the config holds schema defaults in memory without writing anything.
func NewBackup(path, backupset, name string) *Backup {
	b := &Backup{
		Path:      path,
		Backupset: backupset,
		Name:      backupset + "/" + name,
		Config:    backupconf.NewStore(filepath.Join(path, ConfigName), backupconf.BackupSchema),
	}
	if _, err := os.Stat(b.Config.Path); err == nil {
		b.LoadConfig()
	} else {
		b.Config.Validate()
	}
	return b
}

// LoadConfig reloads the backup's config from disk and validates it
// against the schema. Malformed content is resolved to schema defaults
// rather than reported.
func (b *Backup) LoadConfig() {
	if err := b.Config.Load(); err != nil {
		log.Debugf("reloading %s: %v", b.Config.Path, err)
	}
	b.Config.Validate()
}

// Prepare creates the backup directory on disk, creating missing parent
// components. It fails if the directory already exists, which is how a
// same-second duplicate timestamp surfaces.
func (b *Backup) Prepare() error {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return errors.Trace(err)
	}
	if err := os.Mkdir(b.Path, 0o755); err != nil {
		return errors.Annotatef(err, "preparing backup %s", b.Name)
	}
	log.Infof("Creating backup path %s", b.Path)
	return nil
}

// Flush writes the in-memory config out to backup.conf. It does not
// re-validate; last write wins.
func (b *Backup) Flush() error {
	log.Debugf("Writing out config to %s", b.Config.Path)
	return errors.Trace(b.Config.Write())
}

// Purge removes the backup directory and everything under it. An already
// absent directory is not an error. Purge panics rather than remove the
// filesystem root.
func (b *Backup) Purge() error {
	if resolved, err := filepath.EvalSymlinks(b.Path); err == nil && resolved == string(os.PathSeparator) {
		panic(fmt.Sprintf("refusing to purge filesystem root via %s", b.Path))
	}
	if err := os.RemoveAll(b.Path); err != nil {
		return errors.Annotatef(err, "purging backup %s", b.Name)
	}
	return nil
}

// Exists reports whether the backup directory is present on disk.
func (b *Backup) Exists() bool {
	_, err := os.Stat(b.Path)
	return err == nil
}

// Before orders backups by their logical start-time config field, not by
// directory name. A backup whose start-time was set explicitly may sort
// differently than its filesystem name suggests.
func (b *Backup) Before(other *Backup) bool {
	return b.Config.Float(backupconf.KeyStartTime) < other.Config.Float(backupconf.KeyStartTime)
}

// Info renders the display subset of the backup's config: plugin,
// start/stop times and sizes, through human-readable formatters. It has
// no semantic effect.
func (b *Backup) Info() string {
	lines := []string{
		fmt.Sprintf("backup-plugin   = %s", b.Config.String(backupconf.KeyPlugin)),
		fmt.Sprintf("backup-started  = %s", formatEpoch(b.Config.Float(backupconf.KeyStartTime))),
		fmt.Sprintf("backup-finished = %s", formatEpoch(b.Config.Float(backupconf.KeyStopTime))),
		fmt.Sprintf("estimated size  = %s", formatBytes(b.Config.Float(backupconf.KeyEstimatedSize))),
		fmt.Sprintf("on-disk size    = %s", formatBytes(b.Config.Float(backupconf.KeyOnDiskSize))),
	}
	return "\t" + strings.Join(lines, "\n\t\t")
}

// String implements fmt.Stringer with the same fields as Info in a
// multi-line block headed by the compound name.
func (b *Backup) String() string {
	return fmt.Sprintf(
		"Backup: %s\nstart-time:     %s\nstop-time:      %s\nestimated-size: %s\non-disk-size:   %s",
		b.Name,
		formatEpoch(b.Config.Float(backupconf.KeyStartTime)),
		formatEpoch(b.Config.Float(backupconf.KeyStopTime)),
		formatBytes(b.Config.Float(backupconf.KeyEstimatedSize)),
		formatBytes(b.Config.Float(backupconf.KeyOnDiskSize)),
	)
}

func formatEpoch(sec float64) string {
	if sec <= 0 {
		return "--"
	}
	return time.Unix(int64(sec), 0).Format("2006-01-02 15:04:05")
}

func formatBytes(v float64) string {
	if v < 0 {
		v = 0
	}
	return humanize.Bytes(uint64(v))
}
