package txsubmit

import (
	"fmt"

	"github.com/cometbft/cometbft/libs/bytes"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

// Credential is a signing key supplied by the caller. The core only asks it
// for its address, its public key and signatures over sign bytes.
type Credential interface {
	Address() string
	PubKey() cryptotypes.PubKey
	Sign(msg []byte) ([]byte, error)
}

// AccountState is a snapshot of an account as reported by the node.
type AccountState struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// Memo is the transaction memo, passed through unchanged.
type Memo string

func NewMemo(s string) (Memo, error) {
	if len(s) > config.MaxMemoCharacters {
		return "", fmt.Errorf("%w: %d characters, max %d", ErrMemoTooLong, len(s), config.MaxMemoCharacters)
	}

	return Memo(s), nil
}

// AssembledTransaction is a signed transaction ready for broadcast.
type AssembledTransaction struct {
	Bytes        []byte
	Hash         bytes.HexBytes
	GasLimit     uint64
	Fee          sdk.Coins
	Sequence     uint64
	MessageCount int
}

// HashHex is the upper case hex hash CometBFT uses to index the tx.
func (tx *AssembledTransaction) HashHex() string {
	return tx.Hash.String()
}

type EventKind int

const (
	// EventDefault is a placeholder slot that was never filled in.
	EventDefault EventKind = iota
	// EventChainError reports that the chain rejected the message on execution.
	EventChainError
	// EventIBC is an IBC event emitted by the message.
	EventIBC
)

func (k EventKind) String() string {
	switch k {
	case EventDefault:
		return "default"
	case EventChainError:
		return "chain_error"
	case EventIBC:
		return "ibc"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

type Event struct {
	Kind       EventKind
	Type       string
	Attributes map[string]string
	Height     int64
	Cause      string
}

func NewChainErrorEvent(cause string) Event {
	return Event{Kind: EventChainError, Cause: cause}
}

func (e Event) IsChainError() bool {
	return e.Kind == EventChainError
}

// SubmissionOutcome is the result of one broadcast transaction. Events holds
// one slot per message, in message order.
type SubmissionOutcome struct {
	TxHash   string
	Height   int64
	Code     uint32
	GasUsed  int64
	Response *sdk.TxResponse
	Events   []Event
}

// Clone returns a deep copy, so a caller may change the result without
// touching the cached one.
func (o *SubmissionOutcome) Clone() *SubmissionOutcome {
	cp := *o
	cp.Events = make([]Event, len(o.Events))
	for i, ev := range o.Events {
		if ev.Attributes != nil {
			attrs := make(map[string]string, len(ev.Attributes))
			for k, v := range ev.Attributes {
				attrs[k] = v
			}
			ev.Attributes = attrs
		}
		cp.Events[i] = ev
	}

	return &cp
}

func newSubmissionOutcome(txHash string, response *sdk.TxResponse, messageCount int) *SubmissionOutcome {
	return &SubmissionOutcome{
		TxHash:   txHash,
		Response: response,
		Events:   make([]Event, messageCount),
	}
}
