// Package cmd defines the command-line interface for domainx.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(valuesCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	domainsCmd.AddCommand(domainsShowCmd)

	valuesCmd.AddCommand(valuesSetCmd)
	valuesCmd.AddCommand(valuesBulkCmd)

	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsSetCmd)
	weightsCmd.AddCommand(weightsValidateCmd)

	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of ranked libraries to display (0 = all)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for scores (1-4)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of domains ranked concurrently")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Domain store backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the domain store")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Ranking cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for the ranking cache (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Ranking history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for ranking history")
	rootCmd.PersistentFlags().String("rules-file", "", "Path to a rules catalogue in JSON or YAML (built-in rules when empty)")
	rootCmd.PersistentFlags().String("numeric-unranged", string(schema.PassThroughNumeric), "Numeric metrics without a range: passthrough or exclude")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: text or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of rankCmd to Viper
	rankCmd.Flags().Bool("all", false, "Rank every domain")
	rankCmd.Flags().Bool("detail", false, "Print per-category scores and metric coverage")
	if err := viper.BindPFlags(rankCmd.Flags()); err != nil {
		contract.LogFatal("Error binding rank flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("server-addr", contract.DefaultServerAddr, "Address the HTTP API listens on")
	serveCmd.Flags().Duration("server-read-timeout", contract.DefaultReadTimeout, "HTTP read timeout")
	serveCmd.Flags().Duration("server-write-timeout", contract.DefaultWriteTimeout, "HTTP write timeout")
	serveCmd.Flags().Duration("server-idle-timeout", contract.DefaultIdleTimeout, "HTTP idle timeout")
	serveCmd.Flags().Float64("rate-limit", contract.DefaultRateLimit, "Requests per second allowed (0 = unlimited)")
	serveCmd.Flags().Int("rate-burst", contract.DefaultRateBurst, "Burst size of the rate limiter")
	serveCmd.Flags().Bool("watch-rules", false, "Reload the rules file when it changes")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Flags read directly by their commands
	weightsSetCmd.Flags().StringToString("weight", nil, "Category weight as Category=value (repeatable)")
	weightsValidateCmd.Flags().StringToString("weight", nil, "Category weight as Category=value (repeatable)")
	migrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}
