// Package abiform maps Solidity ABI argument types to HTML form widgets and turns the
// submitted strings back into the Go values go-ethereum packs.
package abiform

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrUnsupportedType is returned for ABI types without a form widget (arrays, tuples, ...).
	ErrUnsupportedType = errors.New("unsupported argument type")
	// ErrInvalidValue wraps any value that cannot be coerced into its ABI type.
	ErrInvalidValue = errors.New("invalid argument value")
)

// Widget is the HTML input used for an argument.
type Widget string

const (
	WidgetNumber   Widget = "number"
	WidgetCheckbox Widget = "checkbox"
	WidgetText     Widget = "text"
	WidgetHex      Widget = "hex"
)

type coerceFunc func(t abi.Type, raw string) (interface{}, error)

type entry struct {
	widget Widget
	coerce coerceFunc
}

// dispatch 按 ABI 类型种类选择输入控件与转换函数。
var dispatch = map[byte]entry{
	abi.IntTy:        {widget: WidgetNumber, coerce: coerceInteger},
	abi.UintTy:       {widget: WidgetNumber, coerce: coerceInteger},
	abi.BoolTy:       {widget: WidgetCheckbox, coerce: coerceBool},
	abi.AddressTy:    {widget: WidgetText, coerce: coerceAddress},
	abi.StringTy:     {widget: WidgetText, coerce: coerceString},
	abi.BytesTy:      {widget: WidgetHex, coerce: coerceBytes},
	abi.FixedBytesTy: {widget: WidgetHex, coerce: coerceFixedBytes},
}

// WidgetFor returns the widget for t, or false when t has no form representation.
func WidgetFor(t abi.Type) (Widget, bool) {
	e, ok := dispatch[t.T]
	if !ok {
		return "", false
	}
	return e.widget, true
}

// Coerce converts raw into the Go value go-ethereum expects for t.
func Coerce(t abi.Type, raw string) (interface{}, error) {
	e, ok := dispatch[t.T]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t.String())
	}
	if t.T != abi.StringTy {
		raw = strings.TrimSpace(raw)
	}
	return e.coerce(t, raw)
}

// CoerceArgs converts one raw value per argument. Missing values are treated as empty.
func CoerceArgs(args abi.Arguments, raw []string) ([]interface{}, error) {
	out := make([]interface{}, 0, len(args))
	for i, arg := range args {
		value := ""
		if i < len(raw) {
			value = raw[i]
		}
		v, err := Coerce(arg.Type, value)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", Label(arg, i), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Label returns the argument name, or arg_<i> for unnamed arguments.
func Label(arg abi.Argument, index int) string {
	if arg.Name != "" {
		return arg.Name
	}
	return "arg_" + strconv.Itoa(index)
}

// Placeholder renders "name (type)", with an address hint for address arguments.
func Placeholder(arg abi.Argument, index int) string {
	text := fmt.Sprintf("%s (%s)", Label(arg, index), arg.Type.String())
	if arg.Type.T == abi.AddressTy {
		text += " - 0x..."
	}
	return text
}

// ArgString flattens a JSON parameter value into the string form Coerce accepts.
func ArgString(v interface{}) (string, error) {
	switch value := v.(type) {
	case nil:
		return "", nil
	case string:
		return value, nil
	case json.Number:
		return value.String(), nil
	case bool:
		return strconv.FormatBool(value), nil
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func coerceInteger(t abi.Type, raw string) (interface{}, error) {
	if raw == "" {
		raw = "0"
	}
	n, ok := new(big.Int).SetString(raw, 0)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, raw)
	}

	lo, hi := integerBounds(t)
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return nil, fmt.Errorf("%w: %s out of range for %s", ErrInvalidValue, n, t.String())
	}

	goType := t.GetType()
	if goType.Kind() == reflect.Ptr {
		return n, nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
}

func integerBounds(t abi.Type) (*big.Int, *big.Int) {
	one := big.NewInt(1)
	if t.T == abi.UintTy {
		hi := new(big.Int).Lsh(one, uint(t.Size))
		return big.NewInt(0), hi.Sub(hi, one)
	}
	limit := new(big.Int).Lsh(one, uint(t.Size-1))
	return new(big.Int).Neg(limit), new(big.Int).Sub(limit, one)
}

func coerceBool(_ abi.Type, raw string) (interface{}, error) {
	switch strings.ToLower(raw) {
	case "true", "on", "1":
		return true, nil
	case "", "false", "off", "0":
		return false, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
	}
}

func coerceAddress(_ abi.Type, raw string) (interface{}, error) {
	if !common.IsHexAddress(raw) {
		return nil, fmt.Errorf("%w: %q is not an address", ErrInvalidValue, raw)
	}
	return common.HexToAddress(raw), nil
}

func coerceString(_ abi.Type, raw string) (interface{}, error) {
	return raw, nil
}

func coerceBytes(_ abi.Type, raw string) (interface{}, error) {
	if raw == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return b, nil
}

func coerceFixedBytes(t abi.Type, raw string) (interface{}, error) {
	var b []byte
	if raw != "" {
		decoded, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		b = decoded
	}
	if len(b) != t.Size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidValue, t.String(), t.Size, len(b))
	}
	arr := reflect.New(t.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(b))
	return arr.Interface(), nil
}
