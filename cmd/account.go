package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/wallet"
)

func AccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account [address]",
		Short: "Show account number and sequence, of the configured key by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, parentLogger, err := loadConfig(c)
			if err != nil {
				return err
			}

			address := ""
			if len(args) == 1 {
				address = args[0]
			} else {
				signer, err := wallet.NewSignerFromConfig(cfg.Key, cfg.Chain.AccountPrefix)
				if err != nil {
					return err
				}
				address = signer.Address()
			}

			client, err := txsubmit.NewClient(c.Context(), cfg.Chain, parentLogger.Sugar())
			if err != nil {
				return err
			}
			defer client.Close()

			account, err := client.ResolveAccount(c.Context(), address)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.OutOrStdout(), "address: %s\naccount number: %d\nsequence: %d\n",
				account.Address, account.AccountNumber, account.Sequence)
			return nil
		},
	}
}
