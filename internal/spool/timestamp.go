package spool

import "time"

// timestampLayout names backup directories. Zero-padded fixed-width
// fields make lexicographic order equal to chronological order, which
// every sort in this package relies on.
const timestampLayout = "20060102_150405"

// TimestampName returns the backup directory name for t in local time.
func TimestampName(t time.Time) string {
	return t.Local().Format(timestampLayout)
}

// ValidTimestampName reports whether name is a well-formed backup
// directory name. Directories that fail this check are invisible to
// listings even when present on disk.
func ValidTimestampName(name string) bool {
	_, err := time.ParseInLocation(timestampLayout, name, time.Local)
	return err == nil
}
