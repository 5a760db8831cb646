package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/publish"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionWalletAddress = "wallet_address"
	sessionWalletChain   = "wallet_chain"
	sessionWalletMode    = "wallet_mode"
	sessionEditorID      = "editor_id"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// connection 每次请求都从会话重新构建钱包连接，不做缓存。
func (a *API) connection(c *gin.Context) *chain.Connection {
	session := sessions.Default(c)
	rawAddress, _ := session.Get(sessionWalletAddress).(string)
	addr, ok := chain.ParseAddress(rawAddress)
	if !ok {
		return nil
	}
	rawChain, _ := session.Get(sessionWalletChain).(string)
	chainID, err := strconv.ParseUint(rawChain, 10, 64)
	if err != nil || chainID == 0 {
		chainID = a.gateway.ChainID()
	}
	mode, _ := session.Get(sessionWalletMode).(string)
	switch chain.Mode(mode) {
	case chain.ModeKeystore, chain.ModeSignature:
	default:
		return nil
	}
	return &chain.Connection{Address: addr, ChainID: chainID, Mode: chain.Mode(mode)}
}

func saveConnection(c *gin.Context, conn chain.Connection) error {
	session := sessions.Default(c)
	session.Set(sessionWalletAddress, conn.Address.Hex())
	session.Set(sessionWalletChain, strconv.FormatUint(conn.ChainID, 10))
	session.Set(sessionWalletMode, string(conn.Mode))
	return session.Save()
}

// editorID returns the browser's editor id, assigning one on first use.
func editorID(c *gin.Context) string {
	session := sessions.Default(c)
	if id, ok := session.Get(sessionEditorID).(string); ok && id != "" {
		return id
	}
	id := publish.NewEditorID()
	session.Set(sessionEditorID, id)
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	return id
}

// localRedirect keeps redirects on this site.
func localRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return u.Path
}

func connectedAddress(conn *chain.Connection) *common.Address {
	if conn == nil {
		return nil
	}
	addr := conn.Address
	return &addr
}
