package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const lbPairABIJSON = `[
  {
    "inputs": [],
    "name": "getActiveId",
    "outputs": [{"internalType": "uint24", "name": "activeId", "type": "uint24"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bool", "name": "swapForY", "type": "bool"},
      {"internalType": "uint24", "name": "id", "type": "uint24"}
    ],
    "name": "getNextNonEmptyBin",
    "outputs": [{"internalType": "uint24", "name": "nextId", "type": "uint24"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint24", "name": "id", "type": "uint24"}],
    "name": "getBin",
    "outputs": [
      {"internalType": "uint128", "name": "binReserveX", "type": "uint128"},
      {"internalType": "uint128", "name": "binReserveY", "type": "uint128"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getTokenX",
    "outputs": [{"internalType": "contract IERC20", "name": "tokenX", "type": "address"}],
    "stateMutability": "pure",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getTokenY",
    "outputs": [{"internalType": "contract IERC20", "name": "tokenY", "type": "address"}],
    "stateMutability": "pure",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getBinStep",
    "outputs": [{"internalType": "uint16", "name": "", "type": "uint16"}],
    "stateMutability": "pure",
    "type": "function"
  }
]`

var (
	lbPairABI     abi.ABI
	lbPairABIOnce sync.Once
	lbPairABIErr  error
)

// LBPairABI returns the parsed Liquidity Book pair ABI.
func LBPairABI() (abi.ABI, error) {
	lbPairABIOnce.Do(func() {
		lbPairABI, lbPairABIErr = abi.JSON(strings.NewReader(lbPairABIJSON))
	})
	return lbPairABI, lbPairABIErr
}
