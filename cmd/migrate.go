package cmd

import (
	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/internal/iocache"
)

// migrateCmd runs schema migrations against the domain store.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations for the domain store.",
	Long: `Apply or roll back the schema migrations of the domain store.

Opening the store for any other command already migrates it to the latest
version. Use this command to inspect the effect ahead of time or to roll back.

Examples:
  # Migrate to the latest version
  domainx migrate

  # Roll back everything
  domainx migrate --target-version 0

  # Migrate a PostgreSQL store
  domainx migrate --store-backend postgresql --store-db-connect "postgres://..."`,
	Args:    cobra.NoArgs,
	PreRunE: configSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		target, err := cmd.Flags().GetInt("target-version")
		if err != nil {
			return err
		}
		return iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, target)
	},
}
