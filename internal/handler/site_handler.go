package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chainms/internal/access"
	"github.com/chainms/internal/builder"
	"github.com/chainms/internal/page"
	"github.com/gin-gonic/gin"
)

// Home 展示使用说明、钱包状态和连接表单。
func (a *API) Home(c *gin.Context) {
	conn := a.connection(c)
	data := gin.H{
		"title":    "ChainMS",
		"wallet":   a.walletView(c, conn, true),
		"networks": a.networks,
	}
	if a.wallets != nil {
		data["accounts"] = a.wallets.Accounts()
	}
	a.renderHTML(c, http.StatusOK, "home.html", data)
}

// ShowSite renders a stored page read-only.
func (a *API) ShowSite(c *gin.Context) {
	identity := page.NewIdentity(c.Param("owner"), c.Param("identifier"))
	if err := identity.Validate(); err != nil {
		a.renderStatus(c, http.StatusNotFound, "Page Not Found", "Missing address or identifier", "")
		return
	}
	if !a.resolver.Recognized(identity.Owner) {
		a.renderStatus(c, http.StatusNotFound, "Page Not Found", "Invalid address format", "")
		return
	}

	loaded, err := a.loader.Load(c.Request.Context(), identity)
	if err != nil {
		a.renderLoadError(c, err)
		return
	}

	conn := a.connection(c)
	connected := connectedAddress(conn)
	gate := access.Compute(connected, loaded.Owner)

	if !loaded.Found() {
		editPath := ""
		if gate.CanEdit() {
			editPath = identity.EditPath()
		}
		a.renderStatus(c, http.StatusNotFound, "Page Not Found",
			fmt.Sprintf("The page %s/%s does not exist.", identity.Owner, identity.Identifier), editPath)
		return
	}

	content, err := a.renderer.Render(c.Request.Context(), loaded.Document, a.renderOptions(c, identity))
	if err != nil {
		a.renderError(c, http.StatusInternalServerError, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "site.html", gin.H{
		"title":    identity.String(),
		"identity": identity,
		"access":   gate.State.String(),
		"editPath": identity.EditPath(),
		"content":  content,
	})
}

func (a *API) renderOptions(c *gin.Context, identity page.Identity) builder.RenderOptions {
	opts := builder.RenderOptions{Path: identity.ViewPath()}
	if keys := c.QueryArray("call"); len(keys) > 0 {
		opts.Calls = make(map[string]bool, len(keys))
		for _, key := range keys {
			opts.Calls[key] = true
		}
	}
	if fn := c.Query("write_fn"); fn != "" {
		opts.Write = &builder.WriteOutcome{
			Address:  c.Query("write_addr"),
			Function: fn,
			OK:       c.Query("write_ok") == "1",
			Message:  c.Query("write_msg"),
		}
	}
	return opts
}

func (a *API) renderLoadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, page.ErrCorruptDocument):
		a.renderStatus(c, http.StatusUnprocessableEntity, "Invalid Page Data", "The stored data for this page is not valid JSON.", "")
	case errors.Is(err, page.ErrFetchFailed):
		a.renderStatus(c, http.StatusBadGateway, "Error", "Failed to load page: "+err.Error(), "")
	default:
		a.renderError(c, http.StatusInternalServerError, err)
	}
}

func (a *API) renderStatus(c *gin.Context, status int, heading, message, editPath string) {
	a.renderHTML(c, status, "site_status.html", gin.H{
		"title":    heading,
		"heading":  heading,
		"message":  message,
		"editPath": editPath,
	})
}

func (a *API) renderError(c *gin.Context, status int, err error) {
	data := gin.H{"title": "Error", "retry": c.Request.URL.RequestURI()}
	if a.showErrors && err != nil {
		data["detail"] = err.Error()
	}
	a.renderHTML(c, status, "error.html", data)
}
