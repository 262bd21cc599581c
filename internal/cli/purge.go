package cli

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func newPurgeCmd(stdout io.Writer) *cobra.Command {
	var keep int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "purge <backupset>",
		Short: "Delete all but the newest N backups of a backupset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sp, err := loadSetup(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") {
				keep = cfg.BackupsToKeep
			}
			if keep < 0 {
				return errors.NotValidf("retention count %d", keep)
			}

			bs := sp.FindBackupset(args[0])
			if bs == nil {
				return fmt.Errorf("backupset %q not found", args[0])
			}

			if dryRun {
				backups := bs.ListBackups(false)
				if keep < len(backups) {
					for _, b := range backups[:len(backups)-keep] {
						fmt.Fprintf(stdout, "would purge %s\n", b.Name)
					}
				}
				return nil
			}

			iter, err := bs.Purge(keep)
			if err != nil {
				return err
			}
			for {
				b, ok := iter.Next()
				if !ok {
					break
				}
				fmt.Fprintf(stdout, "purged %s\n", b.Name)
			}
			if err := iter.Err(); err != nil {
				return err
			}
			return bs.UpdateSymlinks(cfg.CreateSymlinks)
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "Number of newest backups to keep (defaults to the configured backups-to-keep)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List purge candidates without deleting")
	return cmd
}
