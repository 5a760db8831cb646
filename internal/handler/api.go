package handler

import (
	"time"

	"github.com/chainms/internal/builder"
	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/page"
	"github.com/chainms/internal/publish"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// walletSource provides signing wallets for connected keystore accounts.
type walletSource interface {
	Accounts() []common.Address
	Verify(addr common.Address, passphrase string) error
	Wallet(addr common.Address, chainID uint64, passphrase string) (chain.Wallet, error)
}

// Options are the dependencies of the HTTP handlers.
type Options struct {
	Resolver      *chain.Resolver
	Gateway       *chain.Gateway
	Wallets       walletSource
	Renderer      *builder.Renderer
	Sessions      *publish.Manager
	History       *publish.History
	Networks      []chain.Network
	RedirectDelay time.Duration
	ShowErrors    bool
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	resolver      *chain.Resolver
	gateway       *chain.Gateway
	loader        *page.Loader
	wallets       walletSource
	renderer      *builder.Renderer
	sessions      *publish.Manager
	history       *publish.History
	challenges    *challengeStore
	networks      []chain.Network
	redirectDelay time.Duration
	showErrors    bool
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	networks := opts.Networks
	if len(networks) == 0 {
		networks = chain.DefaultNetworks
	}
	return &API{
		resolver:      opts.Resolver,
		gateway:       opts.Gateway,
		loader:        page.NewLoader(opts.Resolver, opts.Gateway),
		wallets:       opts.Wallets,
		renderer:      opts.Renderer,
		sessions:      opts.Sessions,
		history:       opts.History,
		challenges:    newChallengeStore(challengeTTL),
		networks:      networks,
		redirectDelay: opts.RedirectDelay,
		showErrors:    opts.ShowErrors,
	}
}

// TargetNetwork is the display name of the chain pages are stored on.
func (a *API) TargetNetwork() string {
	return chain.NetworkName(a.networks, a.gateway.ChainID())
}

type walletViewModel struct {
	Connected   bool   `json:"connected"`
	Address     string `json:"address"`
	Short       string `json:"short"`
	Display     string `json:"display"`
	Mode        string `json:"mode"`
	ChainID     uint64 `json:"chainId"`
	NetworkName string `json:"networkName"`
	OnTarget    bool   `json:"onTarget"`
	CanSign     bool   `json:"canSign"`
}

func (a *API) walletView(c *gin.Context, conn *chain.Connection, withName bool) walletViewModel {
	if conn == nil {
		return walletViewModel{}
	}
	view := walletViewModel{
		Connected:   true,
		Address:     conn.Address.Hex(),
		Short:       chain.ShortAddress(conn.Address),
		Mode:        string(conn.Mode),
		ChainID:     conn.ChainID,
		NetworkName: chain.NetworkName(a.networks, conn.ChainID),
		OnTarget:    conn.ChainID == a.gateway.ChainID(),
		CanSign:     conn.CanSign(),
	}
	view.Display = view.Short
	if withName && a.resolver != nil {
		if name := a.resolver.Lookup(c.Request.Context(), conn.Address); name != "" {
			view.Display = name
		}
	}
	return view
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["wallet"]; !exists {
		payload["wallet"] = a.walletView(c, a.connection(c), false)
	}
	if _, exists := payload["targetNetwork"]; !exists {
		payload["targetNetwork"] = a.TargetNetwork()
	}
	c.HTML(status, template, payload)
}
