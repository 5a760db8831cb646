package chain

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultContractAddress 是页面存储合约在 Optimism 上的部署地址。
const DefaultContractAddress = "0x66F01B8aCF9850774946CeA885f607BA8Af995e6"

// DefaultChainID 为页面合约所在的 Optimism 主网。
const DefaultChainID uint64 = 10

const pageContractABI = `[
  {"type":"function","name":"addressesData","stateMutability":"view",
   "inputs":[{"internalType":"address","name":"","type":"address"},{"internalType":"string","name":"","type":"string"}],
   "outputs":[{"internalType":"string","name":"","type":"string"}]},
  {"type":"function","name":"retrieve","stateMutability":"view",
   "inputs":[{"internalType":"address","name":"addr","type":"address"},{"internalType":"string","name":"identifier","type":"string"}],
   "outputs":[{"internalType":"string","name":"","type":"string"}]},
  {"type":"function","name":"store","stateMutability":"nonpayable",
   "inputs":[{"internalType":"string","name":"identifier","type":"string"},{"internalType":"string","name":"data","type":"string"}],
   "outputs":[]}
]`

// PageContractABI is the parsed interface of the page storage contract.
var PageContractABI = mustParseABI(pageContractABI)

// PageContractABIJSON returns the raw ABI so page authors can paste it into a ContractView block.
func PageContractABIJSON() string {
	return pageContractABI
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid embedded abi: " + err.Error())
	}
	return parsed
}

// Network 描述钱包可以切换到的一条链。
type Network struct {
	ID   uint64 `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// DefaultNetworks mirrors the chains offered by the wallet connector.
var DefaultNetworks = []Network{
	{ID: 10, Name: "Optimism"},
	{ID: 1, Name: "Ethereum"},
	{ID: 42161, Name: "Arbitrum One"},
	{ID: 137, Name: "Polygon"},
	{ID: 8453, Name: "Base"},
}

// NetworkName returns the display name for id, or "chain <id>".
func NetworkName(networks []Network, id uint64) string {
	for _, n := range networks {
		if n.ID == id {
			return n.Name
		}
	}
	return "chain " + strconv.FormatUint(id, 10)
}

// ParseAddress accepts a 0x-prefixed 40 hex digit string. All-lowercase or all-uppercase
// digits are taken as they are; mixed case must be a valid EIP-55 checksum.
func ParseAddress(raw string) (common.Address, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return common.Address{}, false
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, false
	}
	addr := common.HexToAddress(trimmed)
	digits := trimmed[2:]
	mixed := digits != strings.ToLower(digits) && digits != strings.ToUpper(digits)
	if mixed && addr.Hex()[2:] != digits {
		return common.Address{}, false
	}
	return addr, true
}
