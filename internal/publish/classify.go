package publish

import (
	"errors"
	"fmt"

	"github.com/chainms/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 provider error codes.
const (
	codeUserRejected        = 4001
	codeChainDisconnected   = 4901
	codeUnrecognizedChainID = 4902
)

// Classify maps a publish failure to a Category by error identity and JSON-RPC code.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}
	switch {
	case errors.Is(err, chain.ErrUserRejected), errors.Is(err, keystore.ErrDecrypt):
		return CategoryCancelled
	case errors.Is(err, chain.ErrWrongNetwork), errors.Is(err, types.ErrInvalidChainId):
		return CategoryWrongNetwork
	case errors.Is(err, chain.ErrWalletNotReady):
		return CategoryWalletNotReady
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected:
			return CategoryCancelled
		case codeChainDisconnected, codeUnrecognizedChainID:
			return CategoryWrongNetwork
		}
	}
	return CategoryGeneric
}

// Message renders the user-facing text for a failure of category on network.
func Message(category Category, network string, err error) string {
	switch category {
	case CategoryCancelled:
		return "Transaction cancelled by user."
	case CategoryWrongNetwork:
		return fmt.Sprintf("Network error. Please make sure your wallet is connected to %s network.", network)
	case CategoryWalletNotReady:
		return "Wallet not connected properly. Please reconnect your wallet."
	default:
		if err == nil {
			return "Failed to store data"
		}
		return "Failed to store data: " + err.Error()
	}
}
