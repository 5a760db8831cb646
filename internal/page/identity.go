package page

import (
	"errors"
	"net/url"
	"strings"
)

// ErrIdentityIncomplete is returned when the route is missing the owner or the identifier.
var ErrIdentityIncomplete = errors.New("missing address or identifier")

// Identity 来自路由：页面所有者（地址或 ENS 名称）+ 页面标识。
type Identity struct {
	Owner      string
	Identifier string
}

// NewIdentity trims both parts.
func NewIdentity(owner, identifier string) Identity {
	return Identity{Owner: strings.TrimSpace(owner), Identifier: strings.TrimSpace(identifier)}
}

// Validate reports ErrIdentityIncomplete when either part is empty.
func (i Identity) Validate() error {
	if i.Owner == "" || i.Identifier == "" {
		return ErrIdentityIncomplete
	}
	return nil
}

// Key is stable across letter case of the owner part.
func (i Identity) Key() string {
	return strings.ToLower(i.Owner) + "/" + i.Identifier
}

// ViewPath is the read-only route of the page.
func (i Identity) ViewPath() string {
	return "/" + url.PathEscape(i.Owner) + "/" + url.PathEscape(i.Identifier)
}

// EditPath is the editor route of the page.
func (i Identity) EditPath() string {
	return "/puck" + i.ViewPath()
}

func (i Identity) String() string {
	return i.Owner + "/" + i.Identifier
}
