package txrelayer

import (
	"time"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	transfertypes "github.com/cosmos/ibc-go/v8/modules/apps/transfer/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/ics20"
)

// BuildMsgTransfer packs a MsgTransfer sending packet over port/channel. The
// packet times out by timestamp only.
func BuildMsgTransfer(port, channel string, packet ics20.PacketData, timeoutAt time.Time) (*codectypes.Any, error) {
	if err := packet.ValidateBasic(); err != nil {
		return nil, err
	}

	token, err := packet.Token.SDKCoin()
	if err != nil {
		return nil, err
	}

	msg := transfertypes.NewMsgTransfer(
		port,
		channel,
		token,
		packet.Sender.String(),
		packet.Receiver.String(),
		clienttypes.ZeroHeight(),
		uint64(timeoutAt.UnixNano()),
		packet.Memo,
	)

	return codectypes.NewAnyWithValue(msg)
}
