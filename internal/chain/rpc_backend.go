package chain

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type rpcClient interface {
	ContractCaller
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// RPCBackend 通过 JSON-RPC 节点访问真实链。
type RPCBackend struct {
	client  rpcClient
	chainID *big.Int
}

// DialRPCBackend connects to url and checks the node serves chainID.
func DialRPCBackend(ctx context.Context, url string, chainID uint64) (*RPCBackend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	remote, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	if remote.Uint64() != chainID {
		client.Close()
		return nil, fmt.Errorf("%w: rpc endpoint serves chain %d, expected %d", ErrWrongNetwork, remote.Uint64(), chainID)
	}
	return NewRPCBackend(client, chainID), nil
}

// NewRPCBackend wraps an already connected client.
func NewRPCBackend(client rpcClient, chainID uint64) *RPCBackend {
	return &RPCBackend{client: client, chainID: new(big.Int).SetUint64(chainID)}
}

func (b *RPCBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return b.client.CallContract(ctx, call, blockNumber)
}

// Transact builds an EIP-1559 transaction pinned to the backend's chain id, lets wallet sign
// it, submits it and waits until it is mined.
func (b *RPCBackend) Transact(ctx context.Context, wallet Wallet, to common.Address, data []byte) (common.Hash, error) {
	from := wallet.Address()

	nonce, err := b.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	tip, err := b.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas tip: %w", err)
	}
	head, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}
	gas, err := b.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   b.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Data:      data,
	})
	signed, err := wallet.SignTx(ctx, tx, b.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := b.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	log.Printf("[CONTRACT] submitted %s from %s", signed.Hash().Hex(), from.Hex())

	receipt, err := bind.WaitMined(ctx, b.client, signed)
	if err != nil {
		return signed.Hash(), fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return signed.Hash(), ErrTransactionReverted
	}
	return signed.Hash(), nil
}
