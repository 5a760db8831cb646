package handler

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chainms/internal/builder"
	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/db"
	"github.com/chainms/internal/publish"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassphrase = "secret"

type stubHTMLRender struct {
	last *stubHTMLInstance
}

type stubHTMLInstance struct {
	name string
	data interface{}
}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	r.last = &stubHTMLInstance{name: name, data: data}
	return r.last
}

func (r *stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// stubNames resolves a fixed set of ENS names.
type stubNames map[string]common.Address

func (s stubNames) ResolveName(_ context.Context, name string) (common.Address, error) {
	addr, ok := s[strings.ToLower(name)]
	if !ok {
		return common.Address{}, chain.ErrNameNotFound
	}
	return addr, nil
}

func (s stubNames) LookupAddress(_ context.Context, addr common.Address) (string, error) {
	for name, a := range s {
		if a == addr {
			return name, nil
		}
	}
	return "", chain.ErrNameNotFound
}

// fakeWallets plays the keystore: the passphrase must match to sign.
type fakeWallets struct {
	keys map[common.Address]*ecdsa.PrivateKey
}

func (f *fakeWallets) Accounts() []common.Address {
	out := make([]common.Address, 0, len(f.keys))
	for addr := range f.keys {
		out = append(out, addr)
	}
	return out
}

func (f *fakeWallets) Verify(addr common.Address, passphrase string) error {
	if _, ok := f.keys[addr]; !ok {
		return chain.ErrUnknownAccount
	}
	if passphrase != testPassphrase {
		return keystore.ErrDecrypt
	}
	return nil
}

func (f *fakeWallets) Wallet(addr common.Address, chainID uint64, passphrase string) (chain.Wallet, error) {
	key, ok := f.keys[addr]
	if !ok {
		return nil, chain.ErrUnknownAccount
	}
	return &passphraseWallet{KeyWallet: chain.NewKeyWallet(key, chainID), unlocked: passphrase == testPassphrase}, nil
}

type passphraseWallet struct {
	*chain.KeyWallet
	unlocked bool
}

func (w *passphraseWallet) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if !w.unlocked {
		return nil, chain.ErrUserRejected
	}
	return w.KeyWallet.SignTx(ctx, tx, chainID)
}

type fixture struct {
	t       *testing.T
	api     *API
	router  *gin.Engine
	html    *stubHTMLRender
	gateway *chain.Gateway
	history *publish.History
	owner   *ecdsa.PrivateKey
	other   *ecdsa.PrivateKey
	cookies []*http.Cookie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithBackend(t, nil)
}

func newFixtureWithBackend(t *testing.T, backend chain.Backend) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "handler.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	owner, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	contract := common.HexToAddress(chain.DefaultContractAddress)
	if backend == nil {
		backend = chain.NewLocalBackend(gdb, contract, chain.DefaultChainID)
	}
	gateway := chain.NewGateway(backend, contract, chain.DefaultChainID)
	resolver := chain.NewResolver(stubNames{"alice.eth": crypto.PubkeyToAddress(owner.PublicKey)}, nil)
	history := publish.NewHistory(gdb)
	network := chain.NetworkName(chain.DefaultNetworks, chain.DefaultChainID)
	manager := publish.NewManager(func() *publish.Session {
		return publish.NewSession(gateway, network, chain.DefaultChainID, history)
	}, time.Hour)

	api := NewAPI(Options{
		Resolver: resolver,
		Gateway:  gateway,
		Wallets: &fakeWallets{keys: map[common.Address]*ecdsa.PrivateKey{
			crypto.PubkeyToAddress(owner.PublicKey): owner,
			crypto.PubkeyToAddress(other.PublicKey): other,
		}},
		Renderer:      builder.NewRenderer(builder.DefaultRegistry(builder.Deps{Caller: gateway})),
		Sessions:      manager,
		History:       history,
		RedirectDelay: 2 * time.Second,
	})

	html := &stubHTMLRender{}
	router := gin.New()
	router.Use(sessions.Sessions("chainms_session", cookie.NewStore([]byte("test-secret"))))
	router.HTMLRender = html

	router.GET("/test/connect", func(c *gin.Context) {
		chainID, _ := strconv.ParseUint(c.Query("chain"), 10, 64)
		conn := chain.Connection{
			Address: common.HexToAddress(c.Query("address")),
			ChainID: chainID,
			Mode:    chain.Mode(c.Query("mode")),
		}
		if err := saveConnection(c, conn); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	router.GET("/", api.Home)
	router.GET("/puck/:owner/:identifier", api.ShowEditor)
	router.GET("/:owner/:identifier", api.ShowSite)
	router.GET("/api/wallet", api.WalletStatus)
	router.GET("/api/wallet/challenge", api.Challenge)
	router.POST("/api/wallet/connect", api.Connect)
	router.POST("/api/wallet/network", api.SwitchNetwork)
	router.POST("/api/wallet/disconnect", api.Disconnect)
	router.POST("/api/puck/:owner/:identifier/publish", api.Publish)
	router.GET("/api/puck/:owner/:identifier/status", api.PublishStatus)
	router.POST("/api/puck/:owner/:identifier/preview", api.Preview)
	router.POST("/api/contract/:address/write", api.ContractWrite)

	return &fixture{
		t:       t,
		api:     api,
		router:  router,
		html:    html,
		gateway: gateway,
		history: history,
		owner:   owner,
		other:   other,
	}
}

func (f *fixture) ownerAddress() common.Address {
	return crypto.PubkeyToAddress(f.owner.PublicKey)
}

func (f *fixture) otherAddress() common.Address {
	return crypto.PubkeyToAddress(f.other.PublicKey)
}

func (f *fixture) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range f.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	if cookies := rr.Result().Cookies(); len(cookies) > 0 {
		f.cookies = cookies
	}
	return rr
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	f.t.Helper()
	return f.do(http.MethodGet, path, nil, "")
}

func (f *fixture) postJSON(path string, payload interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		f.t.Fatalf("failed to marshal payload: %v", err)
	}
	return f.do(http.MethodPost, path, strings.NewReader(string(body)), "application/json")
}

func (f *fixture) connect(addr common.Address, mode chain.Mode, chainID uint64) {
	f.t.Helper()
	rr := f.get("/test/connect?address=" + addr.Hex() + "&mode=" + string(mode) + "&chain=" + strconv.FormatUint(chainID, 10))
	if rr.Code != http.StatusNoContent {
		f.t.Fatalf("failed to connect test wallet, status %d", rr.Code)
	}
}

func (f *fixture) store(identifier, data string) {
	f.t.Helper()
	wallet := chain.NewKeyWallet(f.owner, chain.DefaultChainID)
	if _, err := f.gateway.StoreDocument(context.Background(), wallet, identifier, data); err != nil {
		f.t.Fatalf("failed to store document: %v", err)
	}
}

func (f *fixture) lastHTML() (string, gin.H) {
	f.t.Helper()
	if f.html.last == nil {
		f.t.Fatalf("expected an HTML response")
	}
	data, ok := f.html.last.data.(gin.H)
	if !ok {
		f.t.Fatalf("expected gin.H template data, got %T", f.html.last.data)
	}
	return f.html.last.name, data
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

// waitSettled polls the status endpoint until the publish finishes.
func (f *fixture) waitSettled(statusPath string) map[string]interface{} {
	f.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status := decodeJSON(f.t, f.get(statusPath))
		if status["state"] != string(publish.StatePublishing) {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	f.t.Fatalf("publish did not settle in time")
	return nil
}
