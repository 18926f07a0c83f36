package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guarzo/crosslist/internal/aggregator"
	"github.com/guarzo/crosslist/internal/config"
	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/connector/registry"
	"github.com/guarzo/crosslist/internal/logging"
	"github.com/guarzo/crosslist/internal/normalize"
)

// app holds what every subcommand needs. Fields left nil are built from
// configuration on first use.
type app struct {
	configDir string
	envFile   string
	logLevel  string

	cfg      *config.Config
	logger   *zap.Logger
	registry *connector.Registry
	creds    connector.CredentialSource
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "crosslist",
		Short:         "Search resale marketplaces in one go",
		Long:          `Fans a query out to eBay, Etsy, Depop and friends, merges the listings and reports fee-adjusted prices, near-duplicates and market statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "directory containing crosslist.toml")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(newSearchCmd(a), newPlatformsCmd(a), newWatchCmd(a))
	return root
}

func (a *app) setup() error {
	if a.cfg == nil {
		cfg, err := config.Load(config.Options{EnvFile: a.envFile, ConfigPaths: []string{a.configDir}})
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	if a.logger == nil {
		lc := a.cfg.Logging()
		if a.logLevel != "" {
			lc.Level = a.logLevel
		}
		logger, err := logging.New(lc)
		if err != nil {
			return err
		}
		a.logger = logger
	}

	if a.registry == nil {
		a.registry = registry.Default(a.cfg.RegistryOptions())
	}
	if a.creds == nil {
		a.creds = a.cfg.Credentials()
	}
	return nil
}

// aggregator builds a search aggregator. A positive deadline overrides the
// configured one.
func (a *app) aggregator(deadline time.Duration, extra ...aggregator.Option) *aggregator.Aggregator {
	opts := []aggregator.Option{
		aggregator.WithLogger(a.logger),
		aggregator.WithDefaultPlatforms(a.cfg.Search.DefaultPlatforms...),
		aggregator.WithSearchDeadline(a.cfg.Search.Deadline),
		aggregator.WithConnectorTimeout(a.cfg.Search.ConnectorTimeout),
		aggregator.WithNormalizer(normalize.New(a.cfg.Fees)),
	}
	if deadline > 0 {
		opts = append(opts, aggregator.WithSearchDeadline(deadline))
	}
	return aggregator.New(a.registry, a.creds, append(opts, extra...)...)
}
