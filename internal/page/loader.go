package page

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
)

// ErrFetchFailed means the chain could not be read; distinct from a page that does not exist.
var ErrFetchFailed = errors.New("failed to load page data")

// AddressResolver turns a route owner into a checksummed address.
type AddressResolver interface {
	Resolve(ctx context.Context, identity string) (common.Address, bool)
}

// DocumentSource reads raw documents from the contract.
type DocumentSource interface {
	RetrieveDocument(ctx context.Context, owner common.Address, identifier string) (string, error)
}

// Page is the result of loading an identity. Owner is nil when the owner could not be
// resolved; Document is nil when nothing is stored.
type Page struct {
	Identity Identity
	Owner    *common.Address
	Document *Document
}

// Found reports whether a document was loaded.
func (p *Page) Found() bool {
	return p != nil && p.Document != nil
}

// Loader 组合地址解析与合约读取，每次调用都直接从链上读取，不做缓存。
type Loader struct {
	resolver AddressResolver
	source   DocumentSource
}

// NewLoader returns a Loader.
func NewLoader(resolver AddressResolver, source DocumentSource) *Loader {
	return &Loader{resolver: resolver, source: source}
}

// Load resolves the owner, then fetches and parses the document. Not-found is a nil
// Document with a nil error; ErrFetchFailed and ErrCorruptDocument are reported as errors.
func (l *Loader) Load(ctx context.Context, id Identity) (*Page, error) {
	result := &Page{Identity: id}
	if err := id.Validate(); err != nil {
		return result, nil
	}

	owner, ok := l.resolver.Resolve(ctx, id.Owner)
	if !ok {
		return result, nil
	}
	result.Owner = &owner

	raw, err := l.source.RetrieveDocument(ctx, owner, id.Identifier)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if raw == "" {
		return result, nil
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		log.Printf("[PAGE] %s holds invalid JSON: %v", id, err)
		return result, err
	}
	result.Document = doc
	return result, nil
}

// LoadForEdit behaves like Load but starts a missing page from EmptyDocument so the owner
// can create it.
func (l *Loader) LoadForEdit(ctx context.Context, id Identity) (*Page, error) {
	result, err := l.Load(ctx, id)
	if err != nil {
		return result, err
	}
	if result.Document == nil && result.Owner != nil {
		result.Document = EmptyDocument()
	}
	return result, nil
}
