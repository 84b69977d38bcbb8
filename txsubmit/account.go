package txsubmit

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ResolveAccount queries the account number and sequence of address. It is
// a single remote call without retry or caching, so two concurrent callers
// may observe the same sequence.
func (c *Client) ResolveAccount(ctx context.Context, address string) (AccountState, error) {
	res, err := c.accounts.Account(ctx, &authtypes.QueryAccountRequest{
		Address: address,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			err = fmt.Errorf("%w: %w", ErrAccountNotFound, err)
		}
		return AccountState{}, &NetworkError{Op: "query account", Address: address, Err: err}
	}

	if res.Account == nil {
		return AccountState{}, &NetworkError{Op: "query account", Address: address, Err: errors.New("empty account in response")}
	}

	var acc sdk.AccountI
	if err := c.registry.UnpackAny(res.Account, &acc); err != nil {
		return AccountState{}, &NetworkError{Op: "unpack account", Address: address, Err: err}
	}

	c.logger.Debugf("resolved account %s, number: %d, sequence: %d", address, acc.GetAccountNumber(), acc.GetSequence())

	return AccountState{
		Address:       address,
		AccountNumber: acc.GetAccountNumber(),
		Sequence:      acc.GetSequence(),
	}, nil
}
