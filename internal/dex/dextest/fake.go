// Package dextest serves an in-process JSON-RPC endpoint that emulates a
// Liquidity Book pair and its two ERC20 tokens.
package dextest

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"lbscope/internal/dex"
)

// MaxBin is what the fake answers when no non-empty bin exists below the query.
const MaxBin = 1<<24 - 1

var (
	PairAddress   = common.HexToAddress("0xD446eb1660F766d533BeCeEf890Df7A69d26f7d1")
	TokenXAddress = common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7")
	TokenYAddress = common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E")
)

const erc20JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20Bytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

// Token describes a fake ERC20. Bytes32 makes symbol and name answer as
// bytes32, like early tokens such as MKR.
type Token struct {
	Symbol   string
	Name     string
	Decimals uint8
	Bytes32  bool
}

// Pair is the mutable state of the fake pair.
type Pair struct {
	mu       sync.RWMutex
	active   int64
	binStep  uint16
	bins     map[int64][2]*big.Int
	tokenX   Token
	tokenY   Token
	failBins map[int64]bool

	// Calls counts every eth_call served, batch elements included.
	Calls atomic.Int64
}

// NewPair creates a fake AVAX/USDC style pair.
func NewPair(active int64, binStep uint16) *Pair {
	return &Pair{
		active:   active,
		binStep:  binStep,
		bins:     make(map[int64][2]*big.Int),
		tokenX:   Token{Symbol: "WAVAX", Name: "Wrapped AVAX", Decimals: 18},
		tokenY:   Token{Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		failBins: make(map[int64]bool),
	}
}

// SetBin stores reserves for a bin; zero reserves remove it.
func (p *Pair) SetBin(id int64, x, y *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if x.Sign() == 0 && y.Sign() == 0 {
		delete(p.bins, id)
		return
	}
	p.bins[id] = [2]*big.Int{new(big.Int).Set(x), new(big.Int).Set(y)}
}

// FailBin makes getBin revert for id.
func (p *Pair) FailBin(id int64) {
	p.mu.Lock()
	p.failBins[id] = true
	p.mu.Unlock()
}

// SetTokens overrides the token descriptions.
func (p *Pair) SetTokens(x, y Token) {
	p.mu.Lock()
	p.tokenX, p.tokenY = x, y
	p.mu.Unlock()
}

// Server starts the JSON-RPC server and returns an in-process client for it.
func (p *Pair) Server() (*rpc.Client, error) {
	pairABI, err := dex.LBPairABI()
	if err != nil {
		return nil, err
	}
	tokenABI, err := abi.JSON(strings.NewReader(erc20JSON))
	if err != nil {
		return nil, err
	}
	bytes32ABI, err := abi.JSON(strings.NewReader(erc20Bytes32JSON))
	if err != nil {
		return nil, err
	}

	server := rpc.NewServer()
	if err := server.RegisterName("eth", &ethService{pair: p, pairABI: pairABI, tokenABI: tokenABI, bytes32ABI: bytes32ABI}); err != nil {
		return nil, err
	}
	return rpc.DialInProc(server), nil
}

type ethService struct {
	pair       *Pair
	pairABI    abi.ABI
	tokenABI   abi.ABI
	bytes32ABI abi.ABI
}

// Call serves eth_call.
func (s *ethService) Call(_ context.Context, args map[string]interface{}, _ string) (hexutil.Bytes, error) {
	s.pair.Calls.Add(1)

	to, _ := args["to"].(string)
	input, _ := args["input"].(string)
	if input == "" {
		input, _ = args["data"].(string)
	}
	data, err := hexutil.Decode(input)
	if err != nil || len(data) < 4 {
		return nil, fmt.Errorf("invalid call data")
	}

	addr := common.HexToAddress(to)
	switch addr {
	case PairAddress:
		return s.callPair(data)
	case TokenXAddress:
		s.pair.mu.RLock()
		token := s.pair.tokenX
		s.pair.mu.RUnlock()
		return s.callToken(token, data)
	case TokenYAddress:
		s.pair.mu.RLock()
		token := s.pair.tokenY
		s.pair.mu.RUnlock()
		return s.callToken(token, data)
	default:
		return nil, fmt.Errorf("execution reverted: no contract at %s", addr.Hex())
	}
}

func (s *ethService) callPair(data []byte) (hexutil.Bytes, error) {
	method, err := s.pairABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	inputs, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	p := s.pair
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []interface{}
	switch method.Name {
	case "getActiveId":
		out = []interface{}{big.NewInt(p.active)}
	case "getBinStep":
		out = []interface{}{p.binStep}
	case "getTokenX":
		out = []interface{}{TokenXAddress}
	case "getTokenY":
		out = []interface{}{TokenYAddress}
	case "getBin":
		id := inputs[0].(*big.Int).Int64()
		if p.failBins[id] {
			return nil, fmt.Errorf("execution reverted: bin %d", id)
		}
		reserves, ok := p.bins[id]
		if !ok {
			reserves = [2]*big.Int{big.NewInt(0), big.NewInt(0)}
		}
		out = []interface{}{reserves[0], reserves[1]}
	case "getNextNonEmptyBin":
		swapForY := inputs[0].(bool)
		id := inputs[1].(*big.Int).Int64()
		out = []interface{}{big.NewInt(p.next(swapForY, id))}
	default:
		return nil, fmt.Errorf("unsupported method %s", method.Name)
	}
	return method.Outputs.Pack(out...)
}

func (p *Pair) next(swapForY bool, id int64) int64 {
	ids := make([]int64, 0, len(p.bins))
	for k := range p.bins {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if swapForY {
		for i := len(ids) - 1; i >= 0; i-- {
			if ids[i] < id {
				return ids[i]
			}
		}
		return MaxBin
	}
	for _, k := range ids {
		if k > id {
			return k
		}
	}
	return 0
}

func (s *ethService) callToken(token Token, data []byte) (hexutil.Bytes, error) {
	method, err := s.tokenABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(token.Decimals)
	case "symbol":
		return s.packText(token, method.Name, token.Symbol)
	case "name":
		return s.packText(token, method.Name, token.Name)
	default:
		return nil, fmt.Errorf("unsupported method %s", method.Name)
	}
}

func (s *ethService) packText(token Token, name, text string) (hexutil.Bytes, error) {
	if !token.Bytes32 {
		return s.tokenABI.Methods[name].Outputs.Pack(text)
	}
	var word [32]byte
	copy(word[:], text)
	return s.bytes32ABI.Methods[name].Outputs.Pack(word)
}
