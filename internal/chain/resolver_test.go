package chain

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNames struct {
	addrs   map[string]common.Address
	reverse map[common.Address]string
	calls   int
}

func (f *fakeNames) ResolveName(_ context.Context, name string) (common.Address, error) {
	f.calls++
	addr, ok := f.addrs[name]
	if !ok {
		return common.Address{}, ErrNameNotFound
	}
	return addr, nil
}

func (f *fakeNames) LookupAddress(_ context.Context, addr common.Address) (string, error) {
	name, ok := f.reverse[addr]
	if !ok {
		return "", ErrNameNotFound
	}
	return name, nil
}

const checksummed = "0x66F01B8aCF9850774946CeA885f607BA8Af995e6"

func TestResolvePassesThroughHexAddressWithoutLookup(t *testing.T) {
	names := &fakeNames{}
	r := NewResolver(names, nil)

	for _, input := range []string{checksummed, "0x66f01b8acf9850774946cea885f607ba8af995e6", "0x66F01B8ACF9850774946CEA885F607BA8AF995E6"} {
		addr, ok := r.Resolve(context.Background(), input)
		require.True(t, ok, input)
		assert.Equal(t, checksummed, addr.Hex())
	}
	assert.Zero(t, names.calls)
}

func TestResolveENSName(t *testing.T) {
	owner := common.HexToAddress(checksummed)
	names := &fakeNames{addrs: map[string]common.Address{"vitalik.eth": owner}}
	r := NewResolver(names, []string{"eth"})

	addr, ok := r.Resolve(context.Background(), "vitalik.eth")
	require.True(t, ok)
	assert.Equal(t, checksummed, addr.Hex())
}

func TestResolveFailuresReturnNotOK(t *testing.T) {
	names := &fakeNames{addrs: map[string]common.Address{"zero.eth": {}}}
	r := NewResolver(names, nil)

	cases := []string{"unknown.eth", "zero.eth", "", "0x1234", "not-a-name"}
	for _, input := range cases {
		_, ok := r.Resolve(context.Background(), input)
		assert.False(t, ok, input)
	}
}

func TestResolveSkipsUnrecognizedSuffix(t *testing.T) {
	names := &fakeNames{addrs: map[string]common.Address{"site.xyz": common.HexToAddress(checksummed)}}
	r := NewResolver(names, []string{".eth"})

	_, ok := r.Resolve(context.Background(), "site.xyz")
	assert.False(t, ok)
	assert.Zero(t, names.calls)
}

func TestResolveWithoutNameService(t *testing.T) {
	r := NewResolver(nil, nil)
	_, ok := r.Resolve(context.Background(), "vitalik.eth")
	assert.False(t, ok)
	assert.Equal(t, "", r.Lookup(context.Background(), common.HexToAddress(checksummed)))
}

func TestLookupRequiresForwardMatch(t *testing.T) {
	owner := common.HexToAddress(checksummed)
	other := common.HexToAddress("0x1111111111111111111111111111111111111111")
	names := &fakeNames{
		addrs:   map[string]common.Address{"alice.eth": owner, "mallory.eth": owner},
		reverse: map[common.Address]string{owner: "alice.eth", other: "mallory.eth"},
	}
	r := NewResolver(names, nil)

	assert.Equal(t, "alice.eth", r.Lookup(context.Background(), owner))
	assert.Equal(t, "", r.Lookup(context.Background(), other))
}

func TestRecognized(t *testing.T) {
	r := NewResolver(nil, []string{".eth", ".box"})
	assert.True(t, r.Recognized(checksummed))
	assert.True(t, r.Recognized("Name.ETH"))
	assert.True(t, r.Recognized("shop.box"))
	assert.False(t, r.Recognized(".eth"))
	assert.False(t, r.Recognized("plain"))
	assert.False(t, r.Recognized("0x66f01B8aCF9850774946CeA885f607BA8Af995e6"))
}
