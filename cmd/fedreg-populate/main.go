package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/edvin/fedreg/internal/logging"
	"github.com/edvin/fedreg/internal/populate"
)

func main() {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "fedreg-populate",
		Short: "Populate the federation registry from provider sites",
		Long: `fedreg-populate inspects the configured OpenStack providers with their
application credentials and pushes what it finds to the federation registry.
Providers that cannot be inspected may be described by a static JSON payload.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "populate.yaml", "path to the site configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	var (
		dryRun  bool
		timeout time.Duration
	)
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Discover every provider and create or update it in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(configPath)
			if err != nil {
				return err
			}
			logger := logging.New(os.Stderr, "fedreg-populate", logLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := &populate.Syncer{
				Client:   populate.NewClient(cfg.Registry.BaseURL, cfg.Registry.Token),
				Discover: &populate.OpenStack{Logger: logger, Timeout: timeout},
				Logger:   logger,
				DryRun:   dryRun,
			}
			return s.Run(ctx, cfg)
		},
	}
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "build and check payloads without contacting the registry")
	syncCmd.Flags().DurationVar(&timeout, "openstack-timeout", 30*time.Second, "timeout of each OpenStack request")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the site configuration without contacting anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d providers, configuration is valid\n", configPath, len(cfg.Providers))
			return nil
		},
	}

	rootCmd.AddCommand(syncCmd, validateCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func load(path string) (*populate.Config, error) {
	cfg, err := populate.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}
