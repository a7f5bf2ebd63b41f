package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/internal/iocache"
)

// cacheCmd focused on ranking cache management.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the ranking cache.",
	Long: `Manage the cache of computed rankings.

A ranking is cached under a key built from the domain contents, the rules
catalogue and the ranking options, so any value or weight change produces a new
entry. Entries expire after a day.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached rankings

Examples:
  domainx cache status
  DOMAINX_CACHE_BACKEND=mysql DOMAINX_CACHE_DB_CONNECT="..." domainx cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove all cached rankings.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		cache := storeManager.GetRankingCache()
		if cache == nil {
			return errors.New("ranking cache is disabled")
		}
		if err := cache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Cache cleared successfully.")
		return nil
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache and domain store statistics.",
	Long: `Show the backend, entry count, entry age and size of the ranking cache,
followed by the row counts of the domain store.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cache := storeManager.GetRankingCache(); cache != nil {
			status, err := cache.GetStatus()
			if err != nil {
				return fmt.Errorf("failed to get cache status: %w", err)
			}
			iocache.PrintCacheStatus(status)
		} else {
			fmt.Println("Cache Backend: disabled")
		}

		status, err := storeManager.GetDomainStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get store status: %w", err)
		}
		fmt.Println()
		iocache.PrintStoreStatus(status)
		return nil
	},
}
