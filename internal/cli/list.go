package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"backupspool/internal/backupconf"
	"backupspool/internal/spool"
)

func newListBackupsetsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list-backupsets",
		Short: "List backupset names in the spool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sp, err := loadSetup(cmd)
			if err != nil {
				return err
			}
			for _, bs := range sp.ListBackupsets("", false) {
				fmt.Fprintln(stdout, bs.Name)
			}
			return nil
		},
	}
}

func newListBackupsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list-backups [backupset]",
		Short: "List backups, optionally restricted to one backupset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sp, err := loadSetup(cmd)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return renderBackupTable(stdout, sp.ListBackups(name))
		},
	}
}

func renderBackupTable(w io.Writer, backups []*spool.Backup) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKUP\tPLUGIN\tSTARTED\tON-DISK\tFAILED")
	for _, b := range backups {
		started := "--"
		if sec := b.Config.Float(backupconf.KeyStartTime); sec > 0 {
			started = time.Unix(int64(sec), 0).Format("2006-01-02 15:04:05")
		}
		failed := "no"
		if b.Config.Bool(backupconf.KeyFailedBackup) {
			failed = "yes"
		}
		onDisk := b.Config.Float(backupconf.KeyOnDiskSize)
		if onDisk < 0 {
			onDisk = 0
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			b.Name,
			b.Config.String(backupconf.KeyPlugin),
			started,
			humanize.Bytes(uint64(onDisk)),
			failed,
		)
	}
	return tw.Flush()
}

func newInfoCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "info <backupset>/<timestamp>",
		Short: "Show metadata for one backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sp, err := loadSetup(cmd)
			if err != nil {
				return err
			}
			b := sp.FindBackup(args[0])
			if b == nil {
				return fmt.Errorf("backup %q not found", args[0])
			}
			fmt.Fprintln(stdout, b.Info())
			return nil
		},
	}
}
