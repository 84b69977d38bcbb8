package main

import (
	"fmt"
	"time"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	"github.com/spf13/cobra"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/ics20"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txrelayer"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/wallet"
)

func SendCmd() *cobra.Command {
	var (
		port          string
		channel       string
		denom         string
		amount        string
		receiver      string
		packetMemo    string
		timeoutMinute uint64
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a single ICS-20 transfer and wait for it to commit",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, parentLogger, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := parentLogger.Sugar()

			signer, err := wallet.NewSignerFromConfig(cfg.Key, cfg.Chain.AccountPrefix)
			if err != nil {
				return err
			}

			packet, err := ics20.Decode(ics20.RawPacketData{
				Denom:    denom,
				Amount:   amount,
				Sender:   signer.Address(),
				Receiver: receiver,
				Memo:     packetMemo,
			})
			if err != nil {
				return err
			}

			timeoutAt := time.Now().Add(time.Duration(timeoutMinute) * time.Minute)
			msg, err := txrelayer.BuildMsgTransfer(port, channel, packet, timeoutAt)
			if err != nil {
				return err
			}

			policy, err := txsubmit.NewFeePolicy(cfg.Chain)
			if err != nil {
				return err
			}
			memo, err := txsubmit.NewMemo(cfg.Chain.Memo)
			if err != nil {
				return err
			}

			ctx := c.Context()
			client, err := txsubmit.NewClient(ctx, cfg.Chain, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			outcome, err := client.SendTx(ctx, signer, policy, memo, []*codectypes.Any{msg})
			if err != nil {
				return err
			}
			if err := txsubmit.Classify(outcome); err != nil {
				return err
			}

			event := outcome.Events[0]
			fmt.Fprintf(c.OutOrStdout(), "tx: %s\nheight: %d\ngas used: %d\n", outcome.TxHash, outcome.Height, outcome.GasUsed)
			if event.Type == channeltypes.EventTypeSendPacket {
				fmt.Fprintf(c.OutOrStdout(), "packet sequence: %s\n", event.Attributes[channeltypes.AttributeKeySequence])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "transfer", "source port")
	cmd.Flags().StringVar(&channel, "channel", "", "source channel, e.g. channel-0")
	cmd.Flags().StringVar(&denom, "denom", "", "token denom")
	cmd.Flags().StringVar(&amount, "amount", "", "token amount")
	cmd.Flags().StringVar(&receiver, "receiver", "", "receiver address on the counterparty chain")
	cmd.Flags().StringVar(&packetMemo, "packet-memo", "", "ICS-20 packet memo")
	cmd.Flags().Uint64Var(&timeoutMinute, "timeout-minutes", txrelayer.DefaultTimeoutMinute, "packet timeout in minutes")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("denom")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("receiver")

	return cmd
}
