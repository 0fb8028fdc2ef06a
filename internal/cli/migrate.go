package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nikhil-Doal/tracker/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|version>",
	Short: "Run database migrations",
	Long: `Apply or roll back the embedded schema migrations.

Examples:
  trackerctl migrate up        # Apply all pending migrations
  trackerctl migrate down      # Roll back every migration
  trackerctl migrate version   # Print the current schema version`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "version"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dsn, err := database.BuildURL(cfg.Database)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch args[0] {
	case "up", "down":
		fmt.Fprintf(out, "Migrating %s against %s\n", args[0], database.RedactURL(dsn))
		if err := database.Migrate(dsn, args[0]); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate command %q: want up, down or version", args[0])
	}

	version, dirty, err := database.SchemaVersion(dsn)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Schema version: %d", version)
	if dirty {
		fmt.Fprint(out, " (dirty, manual intervention required)")
	}
	fmt.Fprintln(out)
	return nil
}
