package builder

import (
	"net/http"
	"time"

	"github.com/chainms/internal/chain"
)

// Deps are the outside services the built-in components use.
type Deps struct {
	// Caller performs read-only contract calls on the target chain.
	Caller chain.ContractCaller
	// HTTP fetches optional event details; defaults to a client with a short timeout.
	HTTP HTTPDoer
	// MegoAPIURL is the events API base; empty disables the lookup.
	MegoAPIURL string
}

// DefaultRegistry registers every built-in component.
func DefaultRegistry(deps Deps) *Registry {
	doer := deps.HTTP
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}

	r := NewRegistry()
	r.Register(markdownComponent())
	r.Register(columnsComponent())
	r.Register(imageComponent())
	r.Register(buttonComponent())
	r.Register(contractViewComponent(deps.Caller))
	r.Register(contractWriteComponent())
	r.Register(megoEventComponent(&megoClient{caller: deps.Caller, http: doer, apiURL: deps.MegoAPIURL}))
	return r
}
