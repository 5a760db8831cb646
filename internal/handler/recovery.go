package handler

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into the error page, or a JSON error for API routes.
func (a *API) Recovery(c *gin.Context, recovered interface{}) {
	log.Printf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		respondError(c, http.StatusInternalServerError, "Something went wrong")
		c.Abort()
		return
	}
	a.renderError(c, http.StatusInternalServerError, fmt.Errorf("%v", recovered))
	c.Abort()
}
