package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cobra.Command) (config.Config, *zap.Logger, error) {
	configFile, err := c.Flags().GetString("config")
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.NewConfig(configFile, flagOverrides(c))
	if err != nil {
		return config.Config{}, nil, err
	}

	enableDebug, err := c.Flags().GetBool("debug")
	if err != nil {
		return config.Config{}, nil, err
	}
	logFormat, err := c.Flags().GetString("log-format")
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := cfg.CreateLogger(logFormat, enableDebug)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, logger, nil
}

func flagOverrides(c *cobra.Command) config.Override {
	flags := c.Flags()

	return config.ChainOverride(func(chain *config.ChainConfig) {
		if flags.Changed("rpc-addr") {
			chain.RPCAddr, _ = flags.GetString("rpc-addr")
		}
		if flags.Changed("grpc-addr") {
			chain.GRPCAddr, _ = flags.GetString("grpc-addr")
		}
		if flags.Changed("gas-adjustment") {
			chain.GasAdjustment, _ = flags.GetFloat64("gas-adjustment")
		}
	})
}
