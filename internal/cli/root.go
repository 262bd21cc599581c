// Package cli implements the spoolctl command line. It is a thin consumer
// of the spool registry: all it does is parse flags, resolve the tool
// configuration and render results.
package cli

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"backupspool/internal/config"
	"backupspool/internal/spool"
)

// NewRootCmd returns the root cobra command for spoolctl.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spoolctl",
		Short:         "Inspect and maintain a backup spool directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().String("config", "", "Path to settings file (YAML)")
	cmd.PersistentFlags().String("spool", "", "Spool root directory (overrides config)")

	cmd.AddCommand(newListBackupsetsCmd(stdout))
	cmd.AddCommand(newListBackupsCmd(stdout))
	cmd.AddCommand(newInfoCmd(stdout))
	cmd.AddCommand(newPurgeCmd(stdout))

	return cmd
}

// Execute runs the CLI with the process stdio and returns its exit code.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// loadSetup resolves the tool configuration and the spool it points at,
// honoring the persistent --config and --spool flags.
func loadSetup(cmd *cobra.Command) (*config.Config, *spool.Spool, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	root, _ := cmd.Flags().GetString("spool")
	if root == "" {
		root = cfg.SpoolRoot
	}
	return cfg, spool.New(root), nil
}
