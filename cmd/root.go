package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/iocache"
	"github.com/thaafei/domainx/internal/rules"
	"github.com/thaafei/domainx/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// storeManager is the global persistence manager instance.
var storeManager contract.StoreManager = iocache.Manager

// ruleProvider holds the loaded rules catalogue.
var ruleProvider *rules.Provider

// logger is the structured logger configured by sharedSetup.
var logger = slog.Default()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "domainx",
	Short: "Rank software libraries with weighted category scores.",
	Long: `DomainX turns raw metric values of libraries into comparable [0,1] scores,
averages them per category and combines the categories with configurable weights.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".domainx") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("DOMAINX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("history-backend", "")
	viper.SetDefault("numeric-unranged", schema.PassThroughNumeric)
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", contract.DefaultLogFormat)
	viper.SetDefault("server-addr", contract.DefaultServerAddr)
	viper.SetDefault("server-read-timeout", contract.DefaultReadTimeout)
	viper.SetDefault("server-write-timeout", contract.DefaultWriteTimeout)
	viper.SetDefault("server-idle-timeout", contract.DefaultIdleTimeout)
	viper.SetDefault("rate-limit", contract.DefaultRateLimit)
	viper.SetDefault("rate-burst", contract.DefaultRateBurst)
	viper.SetDefault("color", "yes")
}

// configSetup unmarshals config, runs validation and installs the logger.
func configSetup(_ *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := viper.Unmarshal(input, hook); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if len(args) > 0 {
		input.DomainID = args[0]
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	logger = contract.NewLogger(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)
	rootCtx = core.WithLogger(rootCtx, logger)
	return nil
}

// sharedSetup runs configSetup and then opens the rules catalogue and the stores.
func sharedSetup(cmd *cobra.Command, args []string) error {
	if err := configSetup(cmd, args); err != nil {
		return err
	}

	// 5. Load the rules catalogue
	provider, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	ruleProvider = provider

	// 6. Initialize persistence layer with validated config
	opts := iocache.StoreOptions{
		StoreBackend:   cfg.StoreBackend,
		StoreConnStr:   cfg.StoreDBConnect,
		CacheBackend:   cfg.CacheBackend,
		CacheConnStr:   cfg.CacheDBConnect,
		HistoryBackend: cfg.HistoryBackend,
		HistoryConnStr: cfg.HistoryDBConnect,
	}
	if err := iocache.InitStores(opts); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	return nil
}

// runExecutor adapts a core executor to cobra.
func runExecutor(fn core.ExecutorFunc) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		return fn(rootCtx, cfg, storeManager, ruleProvider)
	}
}

// requireDomain checks that a domain ID was given, either as an argument or via --all.
func requireDomain(_ *cobra.Command, args []string) error {
	if len(args) == 0 && !viper.GetBool("all") {
		return fmt.Errorf("a domain ID is required (or use --all)")
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// CloseStores closes the stores opened by sharedSetup.
func CloseStores() {
	iocache.CloseStores()
}
