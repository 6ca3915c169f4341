package router

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/server/handlers"
)

const (
	requestIDHeader = "X-Request-ID"
	apiKeyHeader    = "X-API-Key"
	requestIDKey    = "request_id"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Products   *handlers.ProductHandler
	Costs      *handlers.CostHandler
	Quotations *handlers.QuotationHandler
	Health     *handlers.HealthHandler
}

// New wires the Gin engine with required routes and middlewares. An empty
// apiKey leaves /api open.
func New(h Handlers, apiKey string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", h.Health.Check)

	api := r.Group("/api")
	if apiKey != "" {
		api.Use(apiKeyMiddleware(apiKey))
	} else {
		logger.Warn("ADMIN_API_KEY not set, /api is unauthenticated")
	}

	products := api.Group("/products")
	products.GET("", h.Products.List)
	products.GET("/categories", h.Products.Categories)
	products.GET("/profit-analysis", h.Products.ProfitAnalysis)
	products.GET("/:id", h.Products.Get)
	products.POST("", h.Products.Create)
	products.PUT("/:id", h.Products.Update)
	products.PUT("/:id/pricing", h.Products.UpdatePricing)
	products.DELETE("/:id", h.Products.Retire)

	costs := api.Group("/costs")
	costs.GET("", h.Costs.List)
	costs.GET("/history/:productId", h.Costs.History)
	costs.GET("/trend/:productId", h.Costs.Trend)
	costs.GET("/:id", h.Costs.Get)
	costs.POST("", h.Costs.Create)
	costs.PUT("/:id", h.Costs.Update)
	costs.DELETE("/:id", h.Costs.Retire)

	quotes := api.Group("/quotations")
	quotes.GET("", h.Quotations.List)
	quotes.GET("/expiring", h.Quotations.Expiring)
	quotes.GET("/profit-analysis", h.Quotations.ProfitAnalysis)
	quotes.GET("/:id", h.Quotations.Get)
	quotes.POST("", h.Quotations.Create)
	quotes.PUT("/:id", h.Quotations.Update)
	quotes.DELETE("/:id", h.Quotations.Retire)
	quotes.POST("/:id/extend", h.Quotations.Extend)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.Envelope{Success: false, Message: "route not found", Error: "NOT_FOUND"})
	})

	logger.Info("router initialized")
	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func apiKeyMiddleware(apiKey string) gin.HandlerFunc {
	expected := []byte(apiKey)
	return func(c *gin.Context) {
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(apiKeyHeader)), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.Envelope{
				Success: false,
				Message: "missing or invalid API key",
				Error:   "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
