package router

import (
	"log"

	"github.com/chainms/internal/handler"
	"github.com/chainms/internal/view"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.CustomRecovery(api.Recovery))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 3600})
	r.Use(sessions.Sessions("chainms_session", store))

	// 模板内嵌在二进制中
	tmpl, err := view.Templates()
	if err != nil {
		log.Fatalf("failed to parse templates: %v", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/", api.Home)
	r.GET("/puck/:owner/:identifier", api.ShowEditor)
	r.GET("/:owner/:identifier", api.ShowSite)

	apiGroup := r.Group("/api")
	{
		wallet := apiGroup.Group("/wallet")
		{
			wallet.GET("", api.WalletStatus)
			wallet.GET("/challenge", api.Challenge)
			wallet.POST("/connect", api.Connect)
			wallet.POST("/network", api.SwitchNetwork)
			wallet.POST("/disconnect", api.Disconnect)
		}

		editor := apiGroup.Group("/puck/:owner/:identifier")
		{
			editor.POST("/publish", api.Publish)
			editor.GET("/status", api.PublishStatus)
			editor.POST("/preview", api.Preview)
		}

		apiGroup.POST("/contract/:address/write", api.ContractWrite)
	}

	return r
}
