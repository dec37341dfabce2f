package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransferGas is the intrinsic gas of a plain value transfer, the floor of
// any gas limit.
const TransferGas uint64 = 21000

// IsAddress reports whether s is a hex encoded EVM address.
func IsAddress(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}

// ParseAddress validates and converts an EVM address
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %s", s)
	}
	return common.HexToAddress(s), nil
}

// NewTransaction creates a legacy transaction. A nil value means zero.
func NewTransaction(nonce uint64, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *types.Transaction {
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
}

// ValidateTransaction checks the fields a node would reject outright.
func ValidateTransaction(tx *types.Transaction) error {
	if tx.To() == nil {
		return errors.New("missing recipient")
	}
	if tx.Gas() < TransferGas {
		return fmt.Errorf("gas limit %d below intrinsic gas %d", tx.Gas(), TransferGas)
	}
	if tx.GasPrice() == nil || tx.GasPrice().Sign() <= 0 {
		return errors.New("gas price must be positive")
	}
	if tx.Value().Sign() < 0 {
		return errors.New("negative value")
	}
	return nil
}

// SignTransaction signs tx for chainID with the latest signer.
func SignTransaction(tx *types.Transaction, chainID *big.Int, key *ecdsa.PrivateKey) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// ReceiptReader is the part of a node client WaitMined needs.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitMined polls for the receipt of hash until it is available or ctx is
// done.
func WaitMined(ctx context.Context, r ReceiptReader, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := r.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
