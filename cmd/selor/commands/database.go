package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/teranos/selor/am"
	"github.com/teranos/selor/db"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/store"
)

// openDatabase opens and migrates the configured database.
func openDatabase(cfg *am.Config) (*sql.DB, error) {
	path := cfg.GetDatabasePath()
	database, err := db.OpenWithMigrations(path, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return database, nil
}

// openStore is openDatabase wrapped in a store. Callers close the returned db.
func openStore(cfg *am.Config) (*store.Store, *sql.DB, error) {
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store.New(database), database, nil
}

// loadConfig loads and validates the effective configuration.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// verbosity reads the root -v count.
func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}
