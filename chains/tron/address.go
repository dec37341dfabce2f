package tron

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// AddressPrefix is the mainnet address version byte.
const AddressPrefix byte = 0x41

// AddressLength is the length of a raw address, version byte included.
const AddressLength = 21

var ErrInvalidAddress = errors.New("invalid TRON address")

// Address is a raw TRON address: 0x41 followed by the 20 byte account hash.
type Address [AddressLength]byte

// PubkeyToAddress derives the address of a secp256k1 public key. The account
// hash is the same keccak derivation EVM chains use.
func PubkeyToAddress(pub ecdsa.PublicKey) Address {
	var a Address
	a[0] = AddressPrefix
	copy(a[1:], ethcrypto.PubkeyToAddress(pub).Bytes())
	return a
}

// FromEVM converts a 20 byte account hash into a TRON address.
func FromEVM(evm common.Address) Address {
	var a Address
	a[0] = AddressPrefix
	copy(a[1:], evm.Bytes())
	return a
}

// Decode parses a base58check encoded address.
func Decode(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != AddressLength+4 {
		return a, fmt.Errorf("%w: bad length %d", ErrInvalidAddress, len(raw))
	}

	payload, sum := raw[:AddressLength], raw[AddressLength:]
	if !bytes.Equal(checksum(payload), sum) {
		return a, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	if payload[0] != AddressPrefix {
		return a, fmt.Errorf("%w: unexpected prefix 0x%02x", ErrInvalidAddress, payload[0])
	}
	copy(a[:], payload)
	return a, nil
}

// DecodeHex parses the 41-prefixed hex form TronGrid returns when visible
// is false.
func DecodeHex(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil || len(raw) != AddressLength || raw[0] != AddressPrefix {
		return a, fmt.Errorf("%w: %s", ErrInvalidAddress, s)
	}
	copy(a[:], raw)
	return a, nil
}

// IsAddress reports whether s is a valid base58check TRON address.
func IsAddress(s string) bool {
	_, err := Decode(s)
	return err == nil
}

// String returns the base58check encoding.
func (a Address) String() string {
	payload := a[:]
	return base58.Encode(append(append([]byte{}, payload...), checksum(payload)...))
}

// Hex returns the 41-prefixed hex encoding.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// EVM returns the 20 byte account hash, as used in contract parameters.
func (a Address) EVM() common.Address {
	return common.BytesToAddress(a[1:])
}

func checksum(payload []byte) []byte {
	return chainhash.DoubleHashB(payload)[:4]
}
