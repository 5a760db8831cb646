package publish

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// State 是发布流程的状态机：idle -> publishing -> success | error。
type State string

const (
	StateIdle       State = "idle"
	StatePublishing State = "publishing"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Category classifies a failed publish for the message shown to the user.
type Category string

const (
	CategoryNone           Category = ""
	CategoryCancelled      Category = "cancelled"
	CategoryWrongNetwork   Category = "wrong_network"
	CategoryWalletNotReady Category = "wallet_not_ready"
	CategoryGeneric        Category = "generic"
)

// Status is a snapshot of a session's publish state.
type Status struct {
	State     State       `json:"state"`
	Category  Category    `json:"category,omitempty"`
	Message   string      `json:"message,omitempty"`
	TxHash    common.Hash `json:"-"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Settled reports whether the status is a final outcome.
func (s Status) Settled() bool {
	return s.State == StateSuccess || s.State == StateError
}

// TxHashHex returns the transaction hash, or "" when there is none.
func (s Status) TxHashHex() string {
	if s.TxHash == (common.Hash{}) {
		return ""
	}
	return s.TxHash.Hex()
}
