package ics20

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"unicode/utf8"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	transfertypes "github.com/cosmos/ibc-go/v8/modules/apps/transfer/types"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDenom      = errors.New("invalid denom")
	ErrInvalidAmount     = errors.New("invalid coin amount")
	ErrNonIntegralAmount = errors.New("coin amount is not integral")
	ErrInvalidUTF8       = errors.New("packet data is not valid utf-8")
)

// RawPacketData is the wire form of an ICS-20 token transfer packet.
type RawPacketData = transfertypes.FungibleTokenPacketData

var amountRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Denom is a denomination that passed the SDK denom grammar.
type Denom string

func ParseDenom(s string) (Denom, error) {
	if err := sdk.ValidateDenom(s); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDenom, s, err)
	}

	return Denom(s), nil
}

func (d Denom) String() string {
	return string(d)
}

// Amount is an arbitrary precision, non-negative decimal.
type Amount struct {
	d decimal.Decimal
}

// ParseAmount accepts digits with an optional fractional part.
// Signs, exponents and surrounding whitespace are rejected.
func ParseAmount(s string) (Amount, error) {
	if !amountRegex.MatchString(s) {
		return Amount{}, fmt.Errorf("%w %q: does not match %s", ErrInvalidAmount, s, amountRegex.String())
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w %q: %v", ErrInvalidAmount, s, err)
	}

	return Amount{d: d}, nil
}

func AmountFromUint64(v uint64) Amount {
	return Amount{d: decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)}
}

// String renders the canonical form: no leading zeros and no trailing
// fractional zeros, so "0010.50" renders as "10.5" and "1.0" as "1".
func (a Amount) String() string {
	return a.d.String()
}

func (a Amount) Equal(other Amount) bool {
	return a.d.Equal(other.d)
}

func (a Amount) IsIntegral() bool {
	return a.d.IsInteger()
}

// Int converts an integral amount into an sdk Int.
func (a Amount) Int() (sdkmath.Int, error) {
	if !a.IsIntegral() {
		return sdkmath.Int{}, fmt.Errorf("%w: %s", ErrNonIntegralAmount, a)
	}

	i, ok := sdkmath.NewIntFromString(a.d.BigInt().String())
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %s overflows", ErrInvalidAmount, a)
	}

	return i, nil
}

// Signer is a chain agnostic address, kept verbatim.
type Signer string

func (s Signer) String() string {
	return string(s)
}

type Coin struct {
	Denom  Denom
	Amount Amount
}

func (c Coin) String() string {
	return c.Amount.String() + c.Denom.String()
}

// SDKCoin converts the coin into an sdk.Coin, which requires an integral amount.
func (c Coin) SDKCoin() (sdk.Coin, error) {
	amount, err := c.Amount.Int()
	if err != nil {
		return sdk.Coin{}, err
	}

	return sdk.NewCoin(c.Denom.String(), amount), nil
}

// PacketData is the validated form of an ICS-20 packet.
type PacketData struct {
	Token    Coin
	Sender   Signer
	Receiver Signer
	Memo     string
}

// Decode validates the wire packet. No partial value is returned on failure.
func Decode(raw RawPacketData) (PacketData, error) {
	denom, err := ParseDenom(raw.Denom)
	if err != nil {
		return PacketData{}, err
	}

	amount, err := ParseAmount(raw.Amount)
	if err != nil {
		return PacketData{}, err
	}

	return PacketData{
		Token:    Coin{Denom: denom, Amount: amount},
		Sender:   Signer(raw.Sender),
		Receiver: Signer(raw.Receiver),
		Memo:     raw.Memo,
	}, nil
}

// Encode never fails.
func Encode(p PacketData) RawPacketData {
	return RawPacketData{
		Denom:    p.Token.Denom.String(),
		Amount:   p.Token.Amount.String(),
		Sender:   p.Sender.String(),
		Receiver: p.Receiver.String(),
		Memo:     p.Memo,
	}
}

// DecodeBytes decodes the JSON packet bytes carried in a channel packet.
// Invalid UTF-8 is rejected, json would otherwise replace it with U+FFFD and
// the packet would no longer match the bytes it came from.
func DecodeBytes(bz []byte) (PacketData, error) {
	if !utf8.Valid(bz) {
		return PacketData{}, ErrInvalidUTF8
	}

	var raw RawPacketData
	if err := json.Unmarshal(bz, &raw); err != nil {
		return PacketData{}, fmt.Errorf("failed to unmarshal packet data: %w", err)
	}

	return Decode(raw)
}

// Bytes returns the sorted JSON encoding used on the wire.
func (p PacketData) Bytes() []byte {
	raw := Encode(p)
	return raw.GetBytes()
}

// ValidateBasic runs the receiving chain's stateless checks, which are
// stricter than Decode: amounts must be positive integers and signers non-blank.
func (p PacketData) ValidateBasic() error {
	raw := Encode(p)
	return raw.ValidateBasic()
}

func (p PacketData) Equal(other PacketData) bool {
	return p.Token.Denom == other.Token.Denom &&
		p.Token.Amount.Equal(other.Token.Amount) &&
		p.Sender == other.Sender &&
		p.Receiver == other.Receiver &&
		p.Memo == other.Memo
}
