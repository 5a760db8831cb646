package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"math/big"
	"net/url"
	"reflect"
	"strings"

	"github.com/chainms/internal/abiform"
	"github.com/chainms/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errInvalidContractAddress = errors.New("invalid contract address")

type viewCall struct {
	address string
	method  abi.Method
	params  []interface{}
}

type viewResult struct {
	values []interface{}
}

type resultRow struct {
	Name  string
	Value string
}

// parseViewCall validates the ABI, parameters and function of a ContractView node. The
// returned message is shown inline when validation fails.
func parseViewCall(props Props) (*viewCall, string) {
	parsed, err := abi.JSON(strings.NewReader(props.String("abi")))
	if err != nil {
		return nil, "Invalid ABI JSON"
	}

	var params []interface{}
	if raw := strings.TrimSpace(props.String("parameters")); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&params); err != nil {
			return nil, "Invalid parameters JSON"
		}
	}

	name := props.String("functionName")
	for _, method := range parsed.Methods {
		if method.RawName == name && method.IsConstant() {
			return &viewCall{address: props.String("address"), method: method, params: params}, ""
		}
	}
	return nil, fmt.Sprintf("Function %q not found or not a view function", name)
}

func (v *viewCall) call(ctx context.Context, caller chain.ContractCaller) (*viewResult, error) {
	to, ok := chain.ParseAddress(v.address)
	if !ok {
		return nil, errInvalidContractAddress
	}
	if len(v.params) != len(v.method.Inputs) {
		return nil, fmt.Errorf("%s expects %d parameters, got %d", v.method.RawName, len(v.method.Inputs), len(v.params))
	}

	args := make([]interface{}, 0, len(v.params))
	for i, param := range v.params {
		raw, err := abiform.ArgString(param)
		if err != nil {
			return nil, err
		}
		value, err := abiform.Coerce(v.method.Inputs[i].Type, raw)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}

	input, err := v.method.Inputs.Pack(args...)
	if err != nil {
		return nil, err
	}
	data := append(append([]byte{}, v.method.ID...), input...)

	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := v.method.Outputs.Unpack(out)
	if err != nil {
		return nil, err
	}
	return &viewResult{values: values}, nil
}

func contractViewComponent(caller chain.ContractCaller) *Component {
	return &Component{
		Name: "ContractView",
		Fields: []Field{
			{Name: "address", Kind: FieldText},
			{Name: "abi", Kind: FieldTextarea},
			{Name: "functionName", Kind: FieldText},
			{Name: "parameters", Kind: FieldTextarea},
			{Name: "autoCall", Kind: FieldRadio, Options: []Option{{Label: "Yes", Value: true}, {Label: "No", Value: false}}},
			alignField(),
		},
		Defaults: Props{
			"address":      "0x...",
			"abi":          "[]",
			"functionName": "balanceOf",
			"parameters":   "[]",
			"autoCall":     false,
			"align":        "left",
		},
		Prefetch: func(ctx context.Context, props Props, opts RenderOptions, key string) (interface{}, error) {
			if !props.Bool("autoCall") && !opts.Calls[key] {
				return nil, nil
			}
			call, msg := parseViewCall(props)
			if msg != "" {
				return nil, nil
			}
			if caller == nil {
				return nil, errors.New("no chain connection configured")
			}
			return call.call(ctx, caller)
		},
		Render: func(rc *RenderContext) (template.HTML, error) {
			call, msg := parseViewCall(rc.Props)
			if msg != "" {
				return errorBlock(msg), nil
			}

			view := struct {
				Align    string
				Function string
				Address  string
				Params   string
				CallURL  string
				Called   bool
				Error    string
				Rows     []resultRow
				Raw      string
			}{
				Align:    rc.Props.Align(),
				Function: call.method.RawName,
				Address:  call.address,
				CallURL:  rc.Options.Path + "?call=" + url.QueryEscape(rc.Key),
			}
			if len(call.method.Inputs) > 0 {
				if b, err := json.Marshal(call.params); err == nil {
					view.Params = string(b)
				}
			}

			if rc.DataErr != nil {
				view.Called = true
				view.Error = rc.DataErr.Error()
			} else if result, ok := rc.Data.(*viewResult); ok && result != nil {
				view.Called = true
				view.Rows, view.Raw = resultRows(call.method.Outputs, result.values)
			}
			return executeBlock("contract-view", view), nil
		},
	}
}

// resultRows lays out decoded outputs: a tuple becomes one row per component, several
// outputs one row each, a single value one row named after the output.
func resultRows(outputs abi.Arguments, values []interface{}) ([]resultRow, string) {
	if len(outputs) == 0 {
		return nil, fmt.Sprint(values)
	}

	if len(outputs) == 1 {
		output := outputs[0]
		var value interface{}
		if len(values) > 0 {
			value = values[0]
		}
		if output.Type.T == abi.TupleTy {
			rows := make([]resultRow, 0, len(output.Type.TupleElems))
			rv := reflect.ValueOf(value)
			for i, elem := range output.Type.TupleElems {
				name := output.Type.TupleRawNames[i]
				if name == "" {
					name = fmt.Sprintf("field_%d", i)
				}
				var field interface{}
				if rv.IsValid() && rv.Kind() == reflect.Struct && i < rv.NumField() {
					field = rv.Field(i).Interface()
				}
				rows = append(rows, resultRow{Name: name, Value: formatValue(field, *elem)})
			}
			return rows, ""
		}
		name := output.Name
		if name == "" {
			name = "result"
		}
		return []resultRow{{Name: name, Value: formatValue(value, output.Type)}}, ""
	}

	rows := make([]resultRow, 0, len(outputs))
	for i, output := range outputs {
		name := output.Name
		if name == "" {
			name = fmt.Sprintf("output_%d", i)
		}
		var value interface{}
		if i < len(values) {
			value = values[i]
		}
		rows = append(rows, resultRow{Name: name, Value: formatValue(value, output.Type)})
	}
	return rows, ""
}

func formatValue(value interface{}, t abi.Type) string {
	if value == nil {
		return "null"
	}
	switch v := value.(type) {
	case string:
		return `"` + v + `"`
	case common.Address:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	case *big.Int:
		return v.String()
	}
	if t.T == abi.FixedBytesTy {
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Array {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
	}
	return fmt.Sprint(value)
}
