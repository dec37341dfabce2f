package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20JSON = `[
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// ERC20 is the parsed subset of the ERC20 ABI the wallet calls.
var ERC20 abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20JSON))
	if err != nil {
		panic(fmt.Sprintf("invalid erc20 abi: %v", err))
	}
	ERC20 = parsed
}

// TransferData packs the calldata of transfer(to, value).
func TransferData(to common.Address, value *big.Int) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	data, err := ERC20.Pack("transfer", to, value)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer: %w", err)
	}
	return data, nil
}
