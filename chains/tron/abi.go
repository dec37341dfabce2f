package tron

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/chinmay1088/bucks/chains/evm"
)

// TransferSelector is the function_selector TronGrid expects for TRC20
// transfers.
const TransferSelector = "transfer(address,uint256)"

// TransferParameter encodes the arguments of transfer(to, amount) as the hex
// parameter string of triggersmartcontract. TRC20 shares the ERC20 ABI, with
// the version byte dropped from addresses.
func TransferParameter(to Address, amount *big.Int) (string, error) {
	if amount == nil {
		amount = new(big.Int)
	}
	packed, err := evm.ERC20.Methods["transfer"].Inputs.Pack(to.EVM(), amount)
	if err != nil {
		return "", fmt.Errorf("failed to encode transfer parameter: %w", err)
	}
	return hex.EncodeToString(packed), nil
}
