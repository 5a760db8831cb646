package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/chainms/internal/chain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const challengeTTL = 5 * time.Minute

type connectRequest struct {
	Mode       string `json:"mode"`
	Address    string `json:"address"`
	Signature  string `json:"signature"`
	Nonce      string `json:"nonce"`
	Passphrase string `json:"passphrase"`
}

type networkRequest struct {
	ChainID uint64 `json:"chainId"`
}

// challengeStore 保存一次性的签名挑战，取出即删除。
type challengeStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[string]time.Time
}

func newChallengeStore(ttl time.Duration) *challengeStore {
	return &challengeStore{ttl: ttl, now: time.Now, pending: make(map[string]time.Time)}
}

func (s *challengeStore) issue() string {
	nonce := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, expires := range s.pending {
		if now.After(expires) {
			delete(s.pending, key)
		}
	}
	s.pending[nonce] = now.Add(s.ttl)
	return nonce
}

func (s *challengeStore) consume(nonce string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.pending[nonce]
	if !ok {
		return false
	}
	delete(s.pending, nonce)
	return !s.now().After(expires)
}

func challengeMessage(nonce string) string {
	return fmt.Sprintf("Sign in to ChainMS\n\nNonce: %s", nonce)
}

// Challenge issues a message for signature-mode connections.
func (a *API) Challenge(c *gin.Context) {
	nonce := a.challenges.issue()
	c.JSON(http.StatusOK, gin.H{"nonce": nonce, "message": challengeMessage(nonce)})
}

// Connect 通过 keystore 账户或签名消息连接钱包，连接状态写入会话。
func (a *API) Connect(c *gin.Context) {
	var req connectRequest
	if !bindJSON(c, &req, "Invalid connect request") {
		return
	}
	addr, ok := chain.ParseAddress(req.Address)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid address format")
		return
	}

	conn := chain.Connection{Address: addr, ChainID: a.gateway.ChainID()}
	if current := a.connection(c); current != nil {
		conn.ChainID = current.ChainID
	}

	switch chain.Mode(req.Mode) {
	case chain.ModeKeystore:
		if a.wallets == nil {
			respondError(c, http.StatusBadRequest, "Account is not in the keystore")
			return
		}
		if err := a.wallets.Verify(addr, req.Passphrase); err != nil {
			if errors.Is(err, chain.ErrUnknownAccount) {
				respondError(c, http.StatusBadRequest, "Account is not in the keystore")
				return
			}
			log.Printf("[WALLET] keystore unlock for %s failed: %v", addr.Hex(), err)
			respondError(c, http.StatusUnauthorized, "Invalid passphrase")
			return
		}
		conn.Mode = chain.ModeKeystore
	case chain.ModeSignature:
		if !a.challenges.consume(req.Nonce) {
			respondError(c, http.StatusBadRequest, "Challenge expired, please request a new one")
			return
		}
		signer, err := chain.RecoverPersonalSigner(challengeMessage(req.Nonce), req.Signature)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid signature")
			return
		}
		if signer != addr {
			respondError(c, http.StatusUnauthorized, "Signature does not match address")
			return
		}
		conn.Mode = chain.ModeSignature
	default:
		respondError(c, http.StatusBadRequest, "Unsupported wallet mode")
		return
	}

	if err := saveConnection(c, conn); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save session")
		return
	}
	log.Printf("[WALLET] connected %s via %s", addr.Hex(), conn.Mode)
	c.JSON(http.StatusOK, a.walletView(c, &conn, true))
}

// SwitchNetwork changes the chain the connected wallet signs for.
func (a *API) SwitchNetwork(c *gin.Context) {
	var req networkRequest
	if !bindJSON(c, &req, "Invalid network request") {
		return
	}
	conn := a.connection(c)
	if conn == nil {
		respondError(c, http.StatusUnauthorized, "Please connect your wallet first")
		return
	}
	supported := false
	for _, network := range a.networks {
		if network.ID == req.ChainID {
			supported = true
			break
		}
	}
	if !supported {
		respondError(c, http.StatusBadRequest, "Unsupported network")
		return
	}
	conn.ChainID = req.ChainID
	if err := saveConnection(c, *conn); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save session")
		return
	}
	c.JSON(http.StatusOK, a.walletView(c, conn, false))
}

// Disconnect clears the wallet and drops the editor session.
func (a *API) Disconnect(c *gin.Context) {
	session := sessions.Default(c)
	if id, ok := session.Get(sessionEditorID).(string); ok && id != "" {
		a.sessions.End(id)
	}
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save session")
		return
	}
	c.JSON(http.StatusOK, walletViewModel{})
}

// WalletStatus returns the current connection.
func (a *API) WalletStatus(c *gin.Context) {
	c.JSON(http.StatusOK, a.walletView(c, a.connection(c), true))
}
