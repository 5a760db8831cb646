package access

import (
	"github.com/ethereum/go-ethereum/common"
)

// State 描述当前浏览器会话与页面所有者之间的关系。
type State int

const (
	Disconnected State = iota
	ConnectedNonOwner
	ConnectedOwner
)

func (s State) String() string {
	switch s {
	case ConnectedOwner:
		return "owner"
	case ConnectedNonOwner:
		return "non_owner"
	default:
		return "disconnected"
	}
}

// Access is the outcome of comparing the connected account with a page owner.
type Access struct {
	State   State
	IsOwner bool
}

// CanEdit reports whether the editor may be shown.
func (a Access) CanEdit() bool {
	return a.IsOwner
}

// Compute compares connected and owner by address value, so letter case never matters.
// A nil owner (unresolved) is never matched.
func Compute(connected, owner *common.Address) Access {
	if connected == nil {
		return Access{State: Disconnected}
	}
	if owner == nil || *connected != *owner {
		return Access{State: ConnectedNonOwner}
	}
	return Access{State: ConnectedOwner, IsOwner: true}
}

// SameAddress compares two hex strings case-insensitively. Malformed input never matches.
func SameAddress(a, b string) bool {
	if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
