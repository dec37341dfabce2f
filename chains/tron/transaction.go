package tron

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Bandwidth accounting of a broadcast transaction on top of its raw data.
const (
	SignatureSize    = 65
	MaxResultSize    = 64
	ProtobufOverhead = 5
)

// Transaction is a node-built transaction as returned by createtransaction
// and triggersmartcontract.
type Transaction struct {
	TxID       string          `json:"txID"`
	RawData    json.RawMessage `json:"raw_data"`
	RawDataHex string          `json:"raw_data_hex"`
	Signature  []string        `json:"signature,omitempty"`
	Visible    bool            `json:"visible"`
}

// VerifyTxID checks that txID is the sha256 of the raw data, so the node
// cannot get us to sign something other than what raw_data_hex describes.
func (tx *Transaction) VerifyTxID() error {
	raw, err := hex.DecodeString(tx.RawDataHex)
	if err != nil {
		return fmt.Errorf("invalid raw_data_hex: %w", err)
	}
	id, err := hex.DecodeString(tx.TxID)
	if err != nil {
		return fmt.Errorf("invalid txID: %w", err)
	}
	sum := sha256.Sum256(raw)
	if !bytes.Equal(sum[:], id) {
		return errors.New("txID does not match raw_data_hex")
	}
	return nil
}

// Sign appends a secp256k1 signature over the txID.
func (tx *Transaction) Sign(key *ecdsa.PrivateKey) error {
	if err := tx.VerifyTxID(); err != nil {
		return err
	}
	id, _ := hex.DecodeString(tx.TxID)

	sig, err := ethcrypto.Sign(id, key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	sig[64] += 27
	tx.Signature = append(tx.Signature, hex.EncodeToString(sig))
	return nil
}

// EstimateBandwidth returns the bandwidth points the transaction consumes
// once signed by one key.
func EstimateBandwidth(tx *Transaction) int64 {
	return int64(len(tx.RawDataHex)/2) + SignatureSize + MaxResultSize + ProtobufOverhead
}
