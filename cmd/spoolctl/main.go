// Command spoolctl inspects and maintains a backup spool directory.
package main

import (
	"os"

	"backupspool/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
