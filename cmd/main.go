package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lrz-ics20-submitter",
		Short: "Lorenzo ICS-20 transfer submitter",
	}

	rootCmd.PersistentFlags().String("config", "./sample-config.yml", "config file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "auto", "log format: auto, console, json or logfmt")
	rootCmd.PersistentFlags().String("rpc-addr", "", "override chain.rpcAddr")
	rootCmd.PersistentFlags().String("grpc-addr", "", "override chain.grpcAddr")
	rootCmd.PersistentFlags().Float64("gas-adjustment", 0, "override chain.gasAdjustment")

	rootCmd.AddCommand(
		StartCmd(),
		SendCmd(),
		DecodePacketCmd(),
		AccountCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
