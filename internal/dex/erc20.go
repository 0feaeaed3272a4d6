package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Some older tokens return bytes32 for symbol and name, so both shapes are kept.
const (
	erc20StringABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`
	erc20Bytes32ABIJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`
)

type erc20ABIs struct {
	str     abi.ABI
	bytes32 abi.ABI
}

var (
	erc20     erc20ABIs
	erc20Once sync.Once
	erc20Err  error
)

func erc20ABI() (erc20ABIs, error) {
	erc20Once.Do(func() {
		erc20.str, erc20Err = abi.JSON(strings.NewReader(erc20StringABIJSON))
		if erc20Err != nil {
			return
		}
		erc20.bytes32, erc20Err = abi.JSON(strings.NewReader(erc20Bytes32ABIJSON))
	})
	return erc20, erc20Err
}
