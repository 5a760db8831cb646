package chain

import (
	"context"
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultNameSuffixes lists the ENS top-level names accepted in page routes.
var DefaultNameSuffixes = []string{".eth"}

// NameResolver resolves a name to an address.
type NameResolver interface {
	ResolveName(ctx context.Context, name string) (common.Address, error)
}

// AddressNamer is the optional reverse lookup used for display names.
type AddressNamer interface {
	LookupAddress(ctx context.Context, addr common.Address) (string, error)
}

// Resolver 把路由里的地址或 ENS 名称规范化为校验和地址。
type Resolver struct {
	names    NameResolver
	suffixes []string
}

// NewResolver returns a Resolver. names may be nil, in which case only hex addresses resolve.
func NewResolver(names NameResolver, suffixes []string) *Resolver {
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		normalized = append(normalized, s)
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultNameSuffixes...)
	}
	return &Resolver{names: names, suffixes: normalized}
}

// IsName reports whether identity looks like a name this resolver would try to look up.
func (r *Resolver) IsName(identity string) bool {
	lower := strings.ToLower(strings.TrimSpace(identity))
	for _, suffix := range r.suffixes {
		if len(lower) > len(suffix) && strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Recognized reports whether identity is either a hex address or a supported name.
func (r *Resolver) Recognized(identity string) bool {
	if _, ok := ParseAddress(identity); ok {
		return true
	}
	return r.IsName(identity)
}

// Resolve returns the checksummed owner address for identity. A failure is never an
// error for the caller: it reports ok=false and the page is treated as not found.
func (r *Resolver) Resolve(ctx context.Context, identity string) (common.Address, bool) {
	if addr, ok := ParseAddress(identity); ok {
		return addr, true
	}
	if !r.IsName(identity) || r.names == nil {
		return common.Address{}, false
	}

	addr, err := r.names.ResolveName(ctx, identity)
	if err != nil {
		log.Printf("[ENS] resolve %q failed: %v", identity, err)
		return common.Address{}, false
	}
	if addr == (common.Address{}) {
		return common.Address{}, false
	}
	return addr, true
}

// Lookup returns the verified primary name of addr, or "" when there is none.
func (r *Resolver) Lookup(ctx context.Context, addr common.Address) string {
	namer, ok := r.names.(AddressNamer)
	if !ok {
		return ""
	}
	name, err := namer.LookupAddress(ctx, addr)
	if err != nil || name == "" {
		return ""
	}
	forward, err := r.names.ResolveName(ctx, name)
	if err != nil || forward != addr {
		return ""
	}
	return name
}
