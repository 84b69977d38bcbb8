package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/go-bip39"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/config"
)

var ErrNoKey = errors.New("neither mnemonic nor private key configured")

// Signer holds a secp256k1 key and signs raw sign bytes with it.
type Signer struct {
	privKey      cryptotypes.PrivKey
	bech32Prefix string
}

func NewSigner(privKey cryptotypes.PrivKey, bech32Prefix string) *Signer {
	return &Signer{
		privKey:      privKey,
		bech32Prefix: bech32Prefix,
	}
}

// NewSignerFromConfig loads the key from a mnemonic, or from a hex encoded
// private key when no mnemonic is set.
func NewSignerFromConfig(cfg config.KeyConfig, bech32Prefix string) (*Signer, error) {
	switch {
	case cfg.Mnemonic != "":
		return NewSignerFromMnemonic(cfg.Mnemonic, cfg.HDPath, bech32Prefix)
	case cfg.PrivKeyHex != "":
		return NewSignerFromHex(cfg.PrivKeyHex, bech32Prefix)
	default:
		return nil, ErrNoKey
	}
}

func NewSignerFromMnemonic(mnemonic, hdPath, bech32Prefix string) (*Signer, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	if hdPath == "" {
		hdPath = config.DefaultHDPath
	}

	derived, err := hd.Secp256k1.Derive()(mnemonic, "", hdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key at %s: %w", hdPath, err)
	}

	return NewSigner(hd.Secp256k1.Generate()(derived), bech32Prefix), nil
}

func NewSignerFromHex(privKeyHex, bech32Prefix string) (*Signer, error) {
	bz, err := hex.DecodeString(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(bz) != secp256k1.PrivKeySize {
		return nil, fmt.Errorf("invalid private key length %d, expected %d", len(bz), secp256k1.PrivKeySize)
	}

	return NewSigner(&secp256k1.PrivKey{Key: bz}, bech32Prefix), nil
}

// GenerateMnemonic returns a fresh 24 word mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}

	return bip39.NewMnemonic(entropy)
}

// Address is the bech32 account address of the key.
func (s *Signer) Address() string {
	return sdk.MustBech32ifyAddressBytes(s.bech32Prefix, s.AccAddress())
}

func (s *Signer) AccAddress() sdk.AccAddress {
	return sdk.AccAddress(s.privKey.PubKey().Address())
}

func (s *Signer) PubKey() cryptotypes.PubKey {
	return s.privKey.PubKey()
}

func (s *Signer) Sign(msg []byte) ([]byte, error) {
	return s.privKey.Sign(msg)
}
