package abiform

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, name string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(name, "", nil)
	require.NoError(t, err)
	return typ
}

func TestCoerceIntegers(t *testing.T) {
	v, err := Coerce(mustType(t, "uint256"), "42")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), v)

	v, err = Coerce(mustType(t, "uint256"), "")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), v)

	v, err = Coerce(mustType(t, "uint16"), "65535")
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v)

	v, err = Coerce(mustType(t, "int8"), "-128")
	require.NoError(t, err)
	assert.Equal(t, int8(-128), v)

	_, err = Coerce(mustType(t, "uint8"), "256")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Coerce(mustType(t, "uint256"), "-1")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Coerce(mustType(t, "int256"), "ten")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestCoerceBoolAddressString(t *testing.T) {
	v, err := Coerce(mustType(t, "bool"), "on")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = Coerce(mustType(t, "bool"), "")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = Coerce(mustType(t, "bool"), "maybe")
	assert.ErrorIs(t, err, ErrInvalidValue)

	v, err = Coerce(mustType(t, "address"), "0x66f01b8acf9850774946cea885f607ba8af995e6")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x66F01B8aCF9850774946CeA885f607BA8Af995e6"), v)

	_, err = Coerce(mustType(t, "address"), "vitalik.eth")
	assert.ErrorIs(t, err, ErrInvalidValue)

	v, err = Coerce(mustType(t, "string"), "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "  hello  ", v)
}

func TestCoerceBytes(t *testing.T) {
	v, err := Coerce(mustType(t, "bytes"), "0x0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, v)

	v, err = Coerce(mustType(t, "bytes4"), "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, [4]byte{0xde, 0xad, 0xbe, 0xef}, v)

	_, err = Coerce(mustType(t, "bytes4"), "0xdead")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUnsupportedTypes(t *testing.T) {
	_, err := Coerce(mustType(t, "uint256[]"), "1")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, ok := WidgetFor(mustType(t, "address[]"))
	assert.False(t, ok)

	widget, ok := WidgetFor(mustType(t, "bool"))
	assert.True(t, ok)
	assert.Equal(t, WidgetCheckbox, widget)
}

func TestCoerceArgsPacks(t *testing.T) {
	const def = `[{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"","type":"bool"}],"outputs":[]}]`
	parsed, err := abi.JSON(strings.NewReader(def))
	require.NoError(t, err)
	method := parsed.Methods["mint"]

	args, err := CoerceArgs(method.Inputs, []string{"0x66F01B8aCF9850774946CeA885f607BA8Af995e6", "1000"})
	require.NoError(t, err)
	_, err = parsed.Pack("mint", args...)
	require.NoError(t, err)

	_, err = CoerceArgs(method.Inputs, []string{"nope"})
	assert.ErrorContains(t, err, "argument to")

	assert.Equal(t, "arg_2 (bool)", Placeholder(method.Inputs[2], 2))
	assert.Equal(t, "to (address) - 0x...", Placeholder(method.Inputs[0], 0))
}

func TestArgString(t *testing.T) {
	s, err := ArgString(json.Number("12"))
	require.NoError(t, err)
	assert.Equal(t, "12", s)

	s, err = ArgString(true)
	require.NoError(t, err)
	assert.Equal(t, "true", s)

	_, err = ArgString([]interface{}{1})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
