package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/chainms/internal/access"
	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/page"
	"github.com/chainms/internal/publish"
	"github.com/gin-gonic/gin"
)

const historyLimit = 10

type publishRequest struct {
	Data       json.RawMessage `json:"data"`
	Passphrase string          `json:"passphrase"`
	Cancel     bool            `json:"cancel"`
}

type previewRequest struct {
	Data json.RawMessage `json:"data"`
}

// ShowEditor 只允许页面所有者进入编辑器，其他人看到只读提示。
func (a *API) ShowEditor(c *gin.Context) {
	identity := page.NewIdentity(c.Param("owner"), c.Param("identifier"))
	if err := identity.Validate(); err != nil {
		a.renderStatus(c, http.StatusNotFound, "Page Not Found", "Missing address or identifier", "")
		return
	}

	ctx := c.Request.Context()
	loaded, err := a.loader.LoadForEdit(ctx, identity)
	warning := ""
	switch {
	case errors.Is(err, page.ErrCorruptDocument):
		warning = "The stored data for this page is not valid JSON. Publishing will replace it."
		loaded.Document = page.EmptyDocument()
	case err != nil:
		a.renderLoadError(c, err)
		return
	}
	if loaded.Owner == nil {
		a.renderStatus(c, http.StatusNotFound, "Page Not Found", "Invalid address format", "")
		return
	}

	conn := a.connection(c)
	gate := access.Compute(connectedAddress(conn), loaded.Owner)
	if !gate.CanEdit() {
		status := http.StatusForbidden
		if gate.State == access.Disconnected {
			status = http.StatusUnauthorized
		}
		a.renderHTML(c, status, "editor_denied.html", gin.H{
			"title":     "Read-only",
			"connected": conn != nil,
			"owner":     loaded.Owner.Hex(),
			"viewPath":  identity.ViewPath(),
		})
		return
	}

	id := editorID(c)
	session := a.sessions.Acquire(id)
	if !(session.Publishing() && session.Identity().Key() == identity.Key()) {
		session = a.sessions.Begin(id, identity)
	}
	if warning == "" && session.Writing() && !session.Publishing() {
		warning = "An earlier publish from this browser is still confirming. Publishing is available once it lands."
	}

	preview, err := a.renderer.Render(ctx, loaded.Document, a.renderOptions(c, identity))
	if err != nil {
		log.Printf("[EDITOR] preview %s failed: %v", identity, err)
	}
	documentJSON, err := json.MarshalIndent(loaded.Document, "", "  ")
	if err != nil {
		a.renderError(c, http.StatusInternalServerError, err)
		return
	}

	data := gin.H{
		"title":    "Edit " + identity.String(),
		"identity": identity,
		"viewPath": identity.ViewPath(),
		"apiBase":  "/api" + identity.EditPath(),
		"document": string(documentJSON),
		"preview":  preview,
		"palette":  a.renderer.Registry().Palette(),
		"status":   session.Status(),
		"warning":  warning,
	}
	if a.history != nil {
		records, err := a.history.Recent(ctx, *loaded.Owner, identity.Identifier, historyLimit)
		if err != nil {
			log.Printf("[EDITOR] load history %s failed: %v", identity, err)
		}
		data["history"] = records
	}
	a.renderHTML(c, http.StatusOK, "editor.html", data)
}

// Publish starts writing the submitted document; the result is polled via PublishStatus.
func (a *API) Publish(c *gin.Context) {
	identity := page.NewIdentity(c.Param("owner"), c.Param("identifier"))
	var req publishRequest
	if !bindJSON(c, &req, "Invalid publish request") {
		return
	}
	doc, err := decodeDocument(req.Data)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	owner, ok := a.resolver.Resolve(ctx, identity.Owner)
	if identity.Validate() != nil || !ok {
		respondError(c, http.StatusNotFound, "Page owner could not be resolved")
		return
	}
	conn := a.connection(c)
	gate := access.Compute(connectedAddress(conn), &owner)
	switch gate.State {
	case access.Disconnected:
		respondError(c, http.StatusUnauthorized, "Please connect your wallet first")
		return
	case access.ConnectedNonOwner:
		respondError(c, http.StatusForbidden, "Only the page owner can publish")
		return
	}

	id := editorID(c)
	session := a.sessions.Acquire(id)
	if session.Identity().Key() != identity.Key() {
		if session.Writing() {
			c.JSON(http.StatusConflict, a.statusJSON(session))
			return
		}
		session = a.sessions.Begin(id, identity)
	}

	var wallet chain.Wallet
	switch {
	case req.Cancel:
		wallet, err = a.signingWallet(conn, "")
	case conn.CanSign():
		wallet, err = a.signingWallet(conn, req.Passphrase)
	}
	if err != nil {
		log.Printf("[PUBLISH] wallet for %s unavailable: %v", conn.Address.Hex(), err)
		wallet = nil
	}

	err = session.Publish(ctx, wallet, doc)
	switch {
	case errors.Is(err, publish.ErrPublishInFlight):
		c.JSON(http.StatusConflict, a.statusJSON(session))
	case errors.Is(err, chain.ErrWalletNotReady):
		c.JSON(http.StatusUnauthorized, a.statusJSON(session))
	case err != nil:
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		c.JSON(http.StatusAccepted, a.statusJSON(session))
	}
}

// PublishStatus reports the editor session's publish status for the page.
func (a *API) PublishStatus(c *gin.Context) {
	identity := page.NewIdentity(c.Param("owner"), c.Param("identifier"))
	session, ok := a.sessions.Lookup(editorID(c))
	if !ok || session.Identity().Key() != identity.Key() {
		c.JSON(http.StatusOK, gin.H{"state": publish.StateIdle, "message": ""})
		return
	}
	c.JSON(http.StatusOK, a.statusJSON(session))
}

// Preview renders an unsaved document.
func (a *API) Preview(c *gin.Context) {
	identity := page.NewIdentity(c.Param("owner"), c.Param("identifier"))
	var req previewRequest
	if !bindJSON(c, &req, "Invalid preview request") {
		return
	}
	doc, err := decodeDocument(req.Data)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	html, err := a.renderer.Render(c.Request.Context(), doc, a.renderOptions(c, identity))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

func (a *API) signingWallet(conn *chain.Connection, passphrase string) (chain.Wallet, error) {
	if !conn.CanSign() || a.wallets == nil {
		return nil, chain.ErrWalletNotReady
	}
	return a.wallets.Wallet(conn.Address, conn.ChainID, passphrase)
}

func (a *API) statusJSON(session *publish.Session) gin.H {
	status := session.Status()
	out := gin.H{
		"state":     status.State,
		"category":  status.Category,
		"message":   status.Message,
		"txHash":    status.TxHashHex(),
		"updatedAt": status.UpdatedAt,
	}
	if status.State == publish.StateSuccess {
		out["redirect"] = session.Identity().ViewPath()
		out["redirectAfterMs"] = a.redirectDelay.Milliseconds()
	}
	return out
}

// decodeDocument accepts the document either as a JSON object or as a JSON string holding it.
func decodeDocument(raw json.RawMessage) (*page.Document, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("missing page data")
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("invalid page data: %w", err)
		}
		trimmed = inner
	}
	doc, err := page.ParseDocument(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid page data: %w", err)
	}
	return doc, nil
}
