package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
	"golang.org/x/net/idna"
)

// DefaultENSRegistry 是主网 ENS Registry（带 fallback）的地址。
const DefaultENSRegistry = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

const ensABI = `[
  {"type":"function","name":"resolver","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"addr","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"name","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]}
]`

var parsedENSABI = mustParseABI(ensABI)

// ContractCaller performs read-only contract calls. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var ensProfile = idna.New(
	idna.MapForLookup(),
	idna.ValidateLabels(false),
	idna.StrictDomainName(false),
	idna.Transitional(false),
)

// NormalizeName applies UTS-46 mapping to an ENS name.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errors.New("empty ens name")
	}
	normalized, err := ensProfile.ToUnicode(trimmed)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", name, err)
	}
	return normalized, nil
}

// NameHash computes the EIP-137 namehash of an already normalized name.
func NameHash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := keccak256([]byte(labels[i]))
		node = common.BytesToHash(keccak256(node.Bytes(), labelHash))
	}
	return node
}

func keccak256(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// ENS 通过 Registry -> Resolver 两步查询完成名称解析。
type ENS struct {
	caller   ContractCaller
	registry common.Address
}

// NewENS binds an ENS client to a registry on the chain reachable through caller.
func NewENS(caller ContractCaller, registry common.Address) *ENS {
	return &ENS{caller: caller, registry: registry}
}

// ResolveName returns the address record of name. Unregistered names, names without a
// resolver and zero address records all report ErrNameNotFound.
func (e *ENS) ResolveName(ctx context.Context, name string) (common.Address, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return common.Address{}, err
	}
	node := NameHash(normalized)

	resolver, err := e.resolverOf(ctx, node)
	if err != nil {
		return common.Address{}, err
	}

	var addr common.Address
	if err := e.call(ctx, resolver, "addr", node, &addr); err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, ErrNameNotFound
	}
	return addr, nil
}

// LookupAddress returns the primary name registered for addr through the reverse registrar.
func (e *ENS) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	reverse := strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x")) + ".addr.reverse"
	node := NameHash(reverse)

	resolver, err := e.resolverOf(ctx, node)
	if err != nil {
		return "", err
	}

	var name string
	if err := e.call(ctx, resolver, "name", node, &name); err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrNameNotFound
	}
	return name, nil
}

func (e *ENS) resolverOf(ctx context.Context, node common.Hash) (common.Address, error) {
	var resolver common.Address
	if err := e.call(ctx, e.registry, "resolver", node, &resolver); err != nil {
		return common.Address{}, err
	}
	if resolver == (common.Address{}) {
		return common.Address{}, ErrNameNotFound
	}
	return resolver, nil
}

func (e *ENS) call(ctx context.Context, to common.Address, method string, node common.Hash, out interface{}) error {
	input, err := parsedENSABI.Pack(method, [32]byte(node))
	if err != nil {
		return err
	}
	raw, err := e.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return fmt.Errorf("ens %s: %w", method, err)
	}
	if len(raw) == 0 {
		return ErrNameNotFound
	}
	return parsedENSABI.UnpackIntoInterface(out, method, raw)
}
