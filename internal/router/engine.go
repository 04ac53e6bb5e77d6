package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"julianmorley.ca/con-plar/eatathome/pkg/ai"
	"julianmorley.ca/con-plar/eatathome/pkg/global"
	"julianmorley.ca/con-plar/eatathome/pkg/logger"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

// Deps are the services routes dispatch to. A nil Summaries gets the
// disabled AI client, which returns raw history.
type Deps struct {
	Cart      CartManager
	Orders    OrderPlacer
	History   HistoryReader
	Summaries OrderSummarizer
	Health    Pinger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type OrderSummarizer interface {
	SummarizeOrders(ctx context.Context, entries []models.OrderHistoryEntry) *ai.AIReportResponse
}

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

func NewEngine(cfg global.Config, deps Deps, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = global.DefaultAllowedOrigins
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimitMiddleware(NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, limiterIdleTTL)))
	}

	h := NewHandler(deps, cfg.StoreTimeout, log)
	InitializeRoutes(r, h)
	return r
}

func InitializeRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		cart := api.Group("/cart")
		{
			cart.POST("", h.AddToCart)
			cart.GET("/:userId", h.ShowCart)
			cart.DELETE("", h.RemoveCart)
			cart.DELETE("/:cartId", h.RemoveCart)
			cart.PATCH("/:cartId", h.UpdateCart)
		}

		api.POST("/order", h.PlaceOrder)

		orders := api.Group("/orders")
		{
			orders.GET("/:userId", h.ListOrders)
			orders.GET("/:userId/summary", h.OrderSummary)
		}
	}
}
