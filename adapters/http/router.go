package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/logger"
)

type RouterDeps struct {
	Portfolios  *PortfolioHandler
	Editor      *EditorHandler
	Public      *PublicHandler
	Verifier    service.TokenVerifier
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	// RateLimit is requests per second per client IP on public routes.
	// Zero disables limiting.
	RateLimit float64
	Burst     int
	Logger    logger.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// cors.New panics on an empty origin list.
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(ErrorMiddleware(d.Logger))

	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		public := api.Group("/public")
		if d.RateLimit > 0 {
			public.Use(RateLimit(d.RateLimit, d.Burst))
		}
		{
			public.GET("/portfolios/:id", d.Public.GetPortfolio)
			public.GET("/u/:username", d.Public.GetPortfolioByUsername)
		}

		private := api.Group("")
		private.Use(AuthMiddleware(d.Verifier, d.Logger))
		{
			private.GET("/me", d.Portfolios.GetAccount)

			portfolios := private.Group("/portfolios")
			{
				portfolios.POST("", d.Portfolios.CreatePortfolio)
				portfolios.GET("", d.Portfolios.ListPortfolios)
				portfolios.DELETE("/:id", d.Portfolios.DeletePortfolio)

				portfolios.POST("/:id/sessions", d.Editor.OpenSession)
				sessions := portfolios.Group("/:id/sessions/:sid")
				{
					sessions.GET("", d.Editor.GetSession)
					sessions.PATCH("/fields", d.Editor.SetField)
					sessions.PATCH("/items", d.Editor.EditItems)
					sessions.PATCH("/social", d.Editor.SetSocial)
					sessions.PATCH("/experiences", d.Editor.EditExperiences)
					sessions.POST("/assets", d.Editor.AttachAsset)
					sessions.GET("/progress", d.Editor.GetProgress)
					sessions.POST("/save", d.Editor.Save)
					sessions.DELETE("", d.Editor.CloseSession)
				}
			}
		}
	}
	return router
}
