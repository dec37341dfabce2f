package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
)

// Derivation paths (BIP-44 coin types 60 and 195)
const (
	EvmDerivationPath  = "m/44'/60'/0'/0/0"
	TronDerivationPath = "m/44'/195'/0'/0/0"
)

// deriveKey derives the secp256k1 key at path from a BIP-39 seed.
func deriveKey(seed []byte, path string) (*ecdsa.PrivateKey, error) {
	dp, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse derivation path: %w", err)
	}

	// the network params only affect serialization, not derivation
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	for _, idx := range dp {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", idx, err)
		}
	}

	var priv *btcec.PrivateKey
	priv, err = key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get private key: %w", err)
	}
	return priv.ToECDSA(), nil
}
