package builder

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/chainms/internal/abiform"
	"github.com/chainms/internal/access"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

type abiEntry struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	StateMutability string `json:"stateMutability"`
	Constant        bool   `json:"constant"`
}

type writeInput struct {
	Field       string
	Widget      abiform.Widget
	Placeholder string
	Supported   bool
}

type writeFunction struct {
	Name      string
	Inputs    []writeInput
	Supported bool
	Outcome   *WriteOutcome
}

// WriteFunctions returns the state-changing functions of abiJSON in declaration order.
// Overloads share a name; only the first declaration is offered.
func WriteFunctions(abiJSON string) (abi.ABI, []abi.Method, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return abi.ABI{}, nil, err
	}
	var entries []abiEntry
	if err := json.Unmarshal([]byte(abiJSON), &entries); err != nil {
		return abi.ABI{}, nil, err
	}

	seen := make(map[string]bool)
	var methods []abi.Method
	for _, entry := range entries {
		if entry.Type != "function" || seen[entry.Name] {
			continue
		}
		if entry.StateMutability == "view" || entry.StateMutability == "pure" || entry.Constant {
			continue
		}
		method, ok := parsed.Methods[entry.Name]
		if !ok {
			continue
		}
		seen[entry.Name] = true
		methods = append(methods, method)
	}
	return parsed, methods, nil
}

// WriteAction is the form target for writes to address.
func WriteAction(address string) string {
	return "/api/contract/" + url.PathEscape(strings.TrimSpace(address)) + "/write"
}

// ArgField is the form field name of the index-th argument.
func ArgField(index int) string {
	return fmt.Sprintf("arg-%d", index)
}

func contractWriteComponent() *Component {
	return &Component{
		Name: "ContractWrite",
		Fields: []Field{
			{Name: "address", Kind: FieldText},
			{Name: "abi", Kind: FieldTextarea},
			alignField(),
		},
		Defaults: Props{"address": "0x...", "abi": "[]", "align": "left"},
		Render: func(rc *RenderContext) (template.HTML, error) {
			rawABI := rc.Props.String("abi")
			_, methods, err := WriteFunctions(rawABI)
			if err != nil {
				return errorBlock("Invalid ABI JSON"), nil
			}
			address := rc.Props.String("address")

			functions := make([]writeFunction, 0, len(methods))
			for _, method := range methods {
				fn := writeFunction{Name: method.RawName, Supported: true}
				for i, arg := range method.Inputs {
					widget, ok := abiform.WidgetFor(arg.Type)
					fn.Inputs = append(fn.Inputs, writeInput{
						Field:       ArgField(i),
						Widget:      widget,
						Placeholder: abiform.Placeholder(arg, i),
						Supported:   ok,
					})
					if !ok {
						fn.Supported = false
					}
				}
				if out := rc.Options.Write; out != nil && out.Function == method.RawName && access.SameAddress(out.Address, strings.TrimSpace(address)) {
					fn.Outcome = out
				}
				functions = append(functions, fn)
			}

			return executeBlock("contract-write", struct {
				Align     string
				Address   string
				ABI       string
				Action    string
				Redirect  string
				Functions []writeFunction
			}{rc.Props.Align(), address, rawABI, WriteAction(address), rc.Options.Path, functions}), nil
		},
	}
}
