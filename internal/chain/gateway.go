package chain

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Backend moves raw calls and transactions to a chain. RPCBackend talks to a node,
// LocalBackend emulates the page contract on sqlite.
type Backend interface {
	ContractCaller
	Transact(ctx context.Context, wallet Wallet, to common.Address, data []byte) (common.Hash, error)
}

// Gateway 封装页面存储合约的读写，并把写操作固定在目标链上。
type Gateway struct {
	backend  Backend
	contract common.Address
	chainID  uint64
	abi      abi.ABI
}

// NewGateway binds the page contract at contract on chainID.
func NewGateway(backend Backend, contract common.Address, chainID uint64) *Gateway {
	return &Gateway{
		backend:  backend,
		contract: contract,
		chainID:  chainID,
		abi:      PageContractABI,
	}
}

// Contract returns the page contract address.
func (g *Gateway) Contract() common.Address { return g.contract }

// ChainID returns the only network writes are accepted on.
func (g *Gateway) ChainID() uint64 { return g.chainID }

// RetrieveDocument reads the raw document stored under (owner, identifier). An empty string
// means nothing is stored. Failures are reported as ErrFetchFailed.
func (g *Gateway) RetrieveDocument(ctx context.Context, owner common.Address, identifier string) (string, error) {
	input, err := g.abi.Pack("retrieve", owner, identifier)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	to := g.contract
	raw, err := g.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		log.Printf("[CONTRACT] retrieve %s/%s failed: %v", owner.Hex(), identifier, err)
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	var data string
	if err := g.abi.UnpackIntoInterface(&data, "retrieve", raw); err != nil {
		log.Printf("[CONTRACT] decode retrieve %s/%s failed: %v", owner.Hex(), identifier, err)
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return data, nil
}

// StoreDocument writes data under identifier for the wallet's own address. The contract has
// no owner parameter, so a wallet can only ever write its own pages.
func (g *Gateway) StoreDocument(ctx context.Context, wallet Wallet, identifier, data string) (common.Hash, error) {
	input, err := g.abi.Pack("store", identifier, data)
	if err != nil {
		return common.Hash{}, err
	}
	return g.Transact(ctx, wallet, g.contract, input)
}

// Transact sends a state-changing call signed by wallet. It refuses to proceed when no wallet
// is attached or the wallet is on a different network; it never switches networks itself.
func (g *Gateway) Transact(ctx context.Context, wallet Wallet, to common.Address, data []byte) (common.Hash, error) {
	if wallet == nil {
		return common.Hash{}, ErrWalletNotReady
	}
	if wallet.ChainID() != g.chainID {
		return common.Hash{}, fmt.Errorf("%w: wallet on chain %d, contract on chain %d", ErrWrongNetwork, wallet.ChainID(), g.chainID)
	}
	return g.backend.Transact(ctx, wallet, to, data)
}

// CallContract forwards a read-only call to the backend so page blocks can query any contract
// on the target chain.
func (g *Gateway) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return g.backend.CallContract(ctx, call, blockNumber)
}
