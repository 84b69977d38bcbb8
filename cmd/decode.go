package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/ics20"
)

func DecodePacketCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "decode-packet [json|-]",
		Short: "Validate ICS-20 packet data and print its canonical encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			bz := []byte(args[0])
			if args[0] == "-" {
				var err error
				if bz, err = io.ReadAll(c.InOrStdin()); err != nil {
					return err
				}
			}

			packet, err := ics20.DecodeBytes(bz)
			if err != nil {
				return err
			}
			if validate {
				if err := packet.ValidateBasic(); err != nil {
					return err
				}
			}

			fmt.Fprintln(c.OutOrStdout(), string(packet.Bytes()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "also run the receiving chain's stateless checks")
	return cmd
}
