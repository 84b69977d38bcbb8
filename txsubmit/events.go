package txsubmit

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	transfertypes "github.com/cosmos/ibc-go/v8/modules/apps/transfer/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
)

// AttributeKeyMsgIndex is added by baseapp to every event a message emits.
const AttributeKeyMsgIndex = "msg_index"

var ibcEventTypes = map[string]struct{}{
	clienttypes.EventTypeCreateClient:         {},
	clienttypes.EventTypeUpdateClient:         {},
	clienttypes.EventTypeUpgradeClient:        {},
	clienttypes.EventTypeSubmitMisbehaviour:   {},
	channeltypes.EventTypeChannelOpenInit:     {},
	channeltypes.EventTypeChannelOpenTry:      {},
	channeltypes.EventTypeChannelOpenAck:      {},
	channeltypes.EventTypeChannelOpenConfirm:  {},
	channeltypes.EventTypeChannelCloseInit:    {},
	channeltypes.EventTypeChannelCloseConfirm: {},
	channeltypes.EventTypeSendPacket:          {},
	channeltypes.EventTypeRecvPacket:          {},
	channeltypes.EventTypeWriteAck:            {},
	channeltypes.EventTypeAcknowledgePacket:   {},
	channeltypes.EventTypeTimeoutPacket:       {},
	transfertypes.EventTypeTransfer:           {},
	transfertypes.EventTypePacket:             {},
}

func isIBCEvent(eventType string) bool {
	_, ok := ibcEventTypes[eventType]
	return ok
}

// fillEvents merges the committed tx result into the outcome's slots.
func fillEvents(outcome *SubmissionOutcome, res *coretypes.ResultTx) {
	outcome.Height = res.Height
	outcome.Code = res.TxResult.Code
	outcome.GasUsed = res.TxResult.GasUsed

	if res.TxResult.Code != abci.CodeTypeOK {
		cause := fmt.Sprintf("deliver_tx for %s reports error: code=%d, codespace=%s, log=%s",
			outcome.TxHash, res.TxResult.Code, res.TxResult.Codespace, res.TxResult.Log)
		for i := range outcome.Events {
			outcome.Events[i] = NewChainErrorEvent(cause)
			outcome.Events[i].Height = res.Height
		}
		return
	}

	for _, ev := range res.TxResult.Events {
		if !isIBCEvent(ev.Type) {
			continue
		}

		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}

		idx, err := strconv.Atoi(attrs[AttributeKeyMsgIndex])
		if err != nil || idx < 0 || idx >= len(outcome.Events) {
			continue
		}

		// the first IBC event of a message describes it
		if outcome.Events[idx].Kind != EventDefault {
			continue
		}

		outcome.Events[idx] = Event{
			Kind:       EventIBC,
			Type:       ev.Type,
			Attributes: attrs,
			Height:     res.Height,
		}
	}
}
