package wallet

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
)

var _ txsubmit.Credential = (*Signer)(nil)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestNewSignerFromMnemonic(t *testing.T) {
	signer, err := NewSignerFromMnemonic(testMnemonic, "", "cosmos")
	require.NoError(t, err)
	require.Equal(t, "cosmos19rl4cm2hmr8afy4kldpxz3fka4jguq0auqdal4", signer.Address())

	other, err := NewSignerFromMnemonic(testMnemonic, "m/44'/118'/0'/0/1", "cosmos")
	require.NoError(t, err)
	require.NotEqual(t, signer.Address(), other.Address())

	osmo, err := NewSignerFromMnemonic(testMnemonic, config.DefaultHDPath, "osmo")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(osmo.Address(), "osmo1"))
	require.Equal(t, signer.AccAddress(), osmo.AccAddress())

	_, err = NewSignerFromMnemonic("not a mnemonic", "", "cosmos")
	require.Error(t, err)
}

func TestNewSignerFromHex(t *testing.T) {
	fromMnemonic, err := NewSignerFromMnemonic(testMnemonic, "", "cosmos")
	require.NoError(t, err)

	keyHex := hex.EncodeToString(fromMnemonic.privKey.Bytes())
	for _, in := range []string{keyHex, "0x" + keyHex} {
		signer, err := NewSignerFromHex(in, "cosmos")
		require.NoError(t, err)
		require.Equal(t, fromMnemonic.Address(), signer.Address())
	}

	_, err = NewSignerFromHex("zz", "cosmos")
	require.Error(t, err)
	_, err = NewSignerFromHex("abcd", "cosmos")
	require.Error(t, err)
}

func TestNewSignerFromConfig(t *testing.T) {
	_, err := NewSignerFromConfig(config.KeyConfig{}, "cosmos")
	require.ErrorIs(t, err, ErrNoKey)

	mnemonic, err := GenerateMnemonic()
	require.NoError(t, err)
	require.Len(t, strings.Fields(mnemonic), 24)

	signer, err := NewSignerFromConfig(config.KeyConfig{Mnemonic: mnemonic}, "cosmos")
	require.NoError(t, err)

	msg := []byte("sign bytes")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)
	require.True(t, signer.PubKey().VerifySignature(msg, sig))
}
