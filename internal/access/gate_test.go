package access

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	owner := common.HexToAddress("0x66F01B8aCF9850774946CeA885f607BA8Af995e6")
	lower := common.HexToAddress(strings.ToLower(owner.Hex()))
	other := common.HexToAddress("0x0000000000000000000000000000000000000001")

	tests := []struct {
		name      string
		connected *common.Address
		owner     *common.Address
		state     State
		isOwner   bool
	}{
		{name: "same address different case", connected: &lower, owner: &owner, state: ConnectedOwner, isOwner: true},
		{name: "different address", connected: &other, owner: &owner, state: ConnectedNonOwner},
		{name: "nothing connected", connected: nil, owner: &owner, state: Disconnected},
		{name: "unresolved owner", connected: &other, owner: nil, state: ConnectedNonOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.connected, tt.owner)
			assert.Equal(t, tt.state, got.State)
			assert.Equal(t, tt.isOwner, got.IsOwner)
			assert.Equal(t, tt.isOwner, got.CanEdit())
		})
	}
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress("0x66f01b8acf9850774946cea885f607ba8af995e6", "0x66F01B8ACF9850774946CEA885F607BA8AF995E6"))
	assert.False(t, SameAddress("0x66f01b8acf9850774946cea885f607ba8af995e6", "0x0000000000000000000000000000000000000001"))
	assert.False(t, SameAddress("vitalik.eth", "vitalik.eth"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "owner", ConnectedOwner.String())
	assert.Equal(t, "non_owner", ConnectedNonOwner.String())
	assert.Equal(t, "disconnected", Disconnected.String())
}
