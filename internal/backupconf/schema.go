package backupconf

// Section is the INI section holding every backup's metadata.
const Section = "holland:backup"

// Well-known field names in the backup schema.
const (
	KeyPlugin               = "plugin"
	KeyStartTime            = "start-time"
	KeyStopTime             = "stop-time"
	KeyFailedBackup         = "failed-backup"
	KeyEstimatedSize        = "estimated-size"
	KeyOnDiskSize           = "on-disk-size"
	KeyEstimatedSizeFactor  = "estimated-size-factor"
	KeyBackupsToKeep        = "backups-to-keep"
	KeyAutoPurgeFailures    = "auto-purge-failures"
	KeyPurgePolicy          = "purge-policy"
	KeyPurgeOnDemand        = "purge-on-demand"
	KeyBeforeBackupCommand  = "before-backup-command"
	KeyAfterBackupCommand   = "after-backup-command"
	KeyFailedBackupCommand  = "failed-backup-command"
	KeyHistoricSize         = "historic-size"
	KeyHistoricSizeFactor   = "historic-size-factor"
	KeyHistoricEstSizeFactr = "historic-estimated-size-factor"
	KeyCreateSymlinks       = "create-symlinks"
)

// Purge policy option values.
const (
	PurgeManual       = "manual"
	PurgeBeforeBackup = "before-backup"
	PurgeAfterBackup  = "after-backup"
)

// BackupSchema declares every field of backup.conf along with its type
// and default. The layout is load-compatible with existing spool
// directories.
var BackupSchema = Schema{
	Section: Section,
	Fields: []Field{
		{Name: KeyPlugin, Kind: KindString, Default: ""},
		{Name: KeyStartTime, Kind: KindFloat, Default: "0"},
		{Name: KeyStopTime, Kind: KindFloat, Default: "0"},
		{Name: KeyFailedBackup, Kind: KindBool, Default: "no"},
		{Name: KeyEstimatedSize, Kind: KindFloat, Default: "0"},
		{Name: KeyOnDiskSize, Kind: KindFloat, Default: "0"},
		{Name: KeyEstimatedSizeFactor, Kind: KindFloat, Default: "1.0"},
		{Name: KeyBackupsToKeep, Kind: KindInt, Default: "1", Min: 0, HasMin: true},
		{Name: KeyAutoPurgeFailures, Kind: KindBool, Default: "yes"},
		{
			Name:    KeyPurgePolicy,
			Kind:    KindOption,
			Default: PurgeAfterBackup,
			Options: []string{PurgeManual, PurgeBeforeBackup, PurgeAfterBackup},
		},
		{Name: KeyPurgeOnDemand, Kind: KindBool, Default: "no"},
		{Name: KeyBeforeBackupCommand, Kind: KindString, Default: ""},
		{Name: KeyAfterBackupCommand, Kind: KindString, Default: ""},
		{Name: KeyFailedBackupCommand, Kind: KindString, Default: ""},
		{Name: KeyHistoricSize, Kind: KindBool, Default: "yes"},
		{Name: KeyHistoricSizeFactor, Kind: KindFloat, Default: "1.5"},
		{Name: KeyHistoricEstSizeFactr, Kind: KindFloat, Default: "1.1"},
		{Name: KeyCreateSymlinks, Kind: KindBool, Default: "yes"},
	},
}
