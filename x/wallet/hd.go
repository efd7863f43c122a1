// Package wallet derives Ethereum signing keys from BIP-39 mnemonics.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DefaultDerivationPath is the first account of the standard Ethereum HD layout.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Key is a derived account.
type Key struct {
	Path       accounts.DerivationPath
	PrivateKey *ecdsa.PrivateKey
}

// Address returns the account address of the key.
func (k *Key) Address() common.Address {
	return crypto.PubkeyToAddress(k.PrivateKey.PublicKey)
}

// DeriveKey derives the key at path from mnemonic. An empty path means DefaultDerivationPath.
func DeriveKey(mnemonic, path string) (*Key, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultDerivationPath
	}

	dp, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path %q: %w", path, err)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	// Network params only affect the serialized xprv prefix, never the derived key material.
	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	for _, idx := range dp {
		node, err = node.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", dp, err)
		}
	}

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}

	return &Key{Path: dp, PrivateKey: priv.ToECDSA()}, nil
}

// AccountPath returns DefaultDerivationPath with the last component replaced by index.
func AccountPath(index uint32) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}
