package txsubmit

import (
	"context"
	"fmt"

	tmtypes "github.com/cometbft/cometbft/types"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
)

type txFee struct {
	amount  sdk.Coins
	gas     uint64
	granter string
}

// Assemble estimates the fee for msgs and signs them into one transaction
// with account.Sequence. msgs are never split; the caller sizes the batch.
func (c *Client) Assemble(ctx context.Context, cred Credential, account AccountState, policy FeePolicy, memo Memo, msgs []*codectypes.Any) (*AssembledTransaction, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	if _, err := NewMemo(string(memo)); err != nil {
		return nil, err
	}

	gas, fee, err := c.EstimateFee(ctx, cred, account, policy, memo, msgs)
	if err != nil {
		return nil, err
	}

	txBytes, err := c.buildTx(cred, account, memo, msgs, txFee{amount: fee, gas: gas, granter: policy.Granter}, true)
	if err != nil {
		return nil, err
	}

	return &AssembledTransaction{
		Bytes:        txBytes,
		Hash:         tmtypes.Tx(txBytes).Hash(),
		GasLimit:     gas,
		Fee:          fee,
		Sequence:     account.Sequence,
		MessageCount: len(msgs),
	}, nil
}

// buildTx encodes a SIGN_MODE_DIRECT TxRaw. Without sign the signature is
// left empty, which is what simulation expects.
func (c *Client) buildTx(cred Credential, account AccountState, memo Memo, msgs []*codectypes.Any, fee txFee, sign bool) ([]byte, error) {
	body := &txtypes.TxBody{
		Messages: msgs,
		Memo:     string(memo),
	}
	bodyBytes, err := body.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode tx body: %w", err)
	}

	pubKey, err := codectypes.NewAnyWithValue(cred.PubKey())
	if err != nil {
		return nil, fmt.Errorf("failed to pack public key: %w", err)
	}

	authInfo := &txtypes.AuthInfo{
		SignerInfos: []*txtypes.SignerInfo{{
			PublicKey: pubKey,
			ModeInfo: &txtypes.ModeInfo{
				Sum: &txtypes.ModeInfo_Single_{
					Single: &txtypes.ModeInfo_Single{Mode: signing.SignMode_SIGN_MODE_DIRECT},
				},
			},
			Sequence: account.Sequence,
		}},
		Fee: &txtypes.Fee{
			Amount:   fee.amount,
			GasLimit: fee.gas,
			Granter:  fee.granter,
		},
	}
	authInfoBytes, err := authInfo.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth info: %w", err)
	}

	signature := []byte{}
	if sign {
		signDoc := &txtypes.SignDoc{
			BodyBytes:     bodyBytes,
			AuthInfoBytes: authInfoBytes,
			ChainId:       c.chainID,
			AccountNumber: account.AccountNumber,
		}
		signBytes, err := signDoc.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to encode sign doc: %w", err)
		}

		signature, err = cred.Sign(signBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
		}
	}

	raw := &txtypes.TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{signature},
	}

	return raw.Marshal()
}
