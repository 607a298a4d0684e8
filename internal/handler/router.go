package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"coupon-ledger/internal/handler/api"
	"coupon-ledger/internal/handler/middleware"
	"coupon-ledger/internal/handler/web"
	"coupon-ledger/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type RouterDeps struct {
	Config        config.Config
	Logger        *middleware.Logger
	Metrics       *middleware.MetricsBuilder
	Gatherer      prometheus.Gatherer
	CouponHandler *api.CouponHandler
}

func NewRouter(engine *gin.Engine, deps RouterDeps) {
	setupMiddleware(engine, deps)
	setupRoutes(engine, deps)
}

func setupMiddleware(engine *gin.Engine, deps RouterDeps) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(deps.Metrics.Build())
	engine.Use(middleware.NewCORSMiddleware(deps.Config.CORS))
	engine.Use(deps.Logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, deps RouterDeps) {
	h := deps.CouponHandler

	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Paths the form integration and printed QR codes already point at
	addRoutes(&engine.RouterGroup, []route{
		{Method: http.MethodPost, Path: "/webhook", Handler: h.Issue},
		{Method: http.MethodPost, Path: "/validar", Handler: h.Redeem},
		{Method: http.MethodGet, Path: "/validar", Handler: web.ValidatorPage},
		{Method: http.MethodGet, Path: "/web", Handler: web.ValidatorPage},
	})

	apiGroup := engine.Group("/api")
	{
		coupons := apiGroup.Group("/coupons")
		addRoutes(coupons, []route{
			{Method: http.MethodPost, Path: "", Handler: h.Issue},
			{Method: http.MethodPost, Path: "/redeem", Handler: h.Redeem},
			{Method: http.MethodGet, Path: "/:code", Handler: h.Get},
			{Method: http.MethodGet, Path: "/:code/qr.png", Handler: h.Image},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
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
