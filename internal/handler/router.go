package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickbid/internal/domain/actor"
	"quickbid/internal/handler/api"
	"quickbid/internal/handler/middleware"
	"quickbid/internal/handler/ws"
	"quickbid/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(engine *gin.Engine, cfg config.Config, auctionHandler *api.AuctionHandler, wsHandler *ws.Handler, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, auctionHandler, wsHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.NewLogger(cfg.Log).LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, auctionHandler *api.AuctionHandler, wsHandler *ws.Handler, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	engine.GET("/ws", authMiddleware.RequireAuth(), wsHandler.Serve)

	apiGroup := engine.Group("/api")
	{
		auctions := apiGroup.Group("/auctions")
		auctions.Use(authMiddleware.RequireAuth())
		{
			addRoutes(auctions, []route{
				{Method: http.MethodGet, Path: "", Handler: auctionHandler.List},
				{Method: http.MethodGet, Path: "/:id", Handler: auctionHandler.Get},
			})

			operatorOnly := []gin.HandlerFunc{authMiddleware.RequireRoleAtLeast(actor.RoleOperator)}
			addRoutes(auctions, []route{
				{Method: http.MethodPost, Path: "", Handler: auctionHandler.Create, Mw: operatorOnly},
				{Method: http.MethodPost, Path: "/:id/start", Handler: auctionHandler.Start, Mw: operatorOnly},
				{Method: http.MethodPost, Path: "/:id/pause", Handler: auctionHandler.Pause, Mw: operatorOnly},
				{Method: http.MethodPost, Path: "/:id/resume", Handler: auctionHandler.Resume, Mw: operatorOnly},
				{Method: http.MethodPost, Path: "/:id/end", Handler: auctionHandler.End, Mw: operatorOnly},
				{Method: http.MethodPatch, Path: "/:id/settings", Handler: auctionHandler.UpdateSettings, Mw: operatorOnly},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
