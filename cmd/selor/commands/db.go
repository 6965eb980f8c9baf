package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/selor/db"
	"github.com/teranos/selor/display"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the selor database",
	Long: `db - Inspect the selor database

The database records built pools and explanation runs. It is created and
migrated on first use.

Examples:
  selor db status                 # Database path and schema version`,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database path, schema version and stored pools",
	RunE:  runDbStatus,
}

func init() {
	DbCmd.AddCommand(dbStatusCmd)
}

func runDbStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	schema, err := db.SchemaVersion(database)
	if err != nil {
		return err
	}
	pools, err := st.ListPools(cmd.Context())
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(map[string]interface{}{
			"path":           cfg.GetDatabasePath(),
			"schema_version": schema,
			"pools":          len(pools),
		})
	}
	pterm.Info.Printfln("Database Path:  %s", cfg.GetDatabasePath())
	pterm.Info.Printfln("Schema Version: %s", schema)
	pterm.Info.Printfln("Stored Pools:   %d", len(pools))
	return nil
}
