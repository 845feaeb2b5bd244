// Package router wires the HTTP routes and middleware.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/offerdesk/backend/internal/infrastructure/config"
	"github.com/offerdesk/backend/internal/infrastructure/logger"
	"github.com/offerdesk/backend/internal/interfaces/http/dto"
	"github.com/offerdesk/backend/internal/interfaces/http/handler"
)

// Handlers groups the HTTP handlers the router mounts
type Handlers struct {
	Offer  *handler.OfferHandler
	System *handler.SystemHandler
}

// New creates the gin engine with middleware and routes configured
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.HTTP.MaxBodySize

	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound,
			dto.NewErrorResponse(dto.ErrCodeNotFound, "route not found"))
	})

	engine.GET("/", h.System.Info)
	engine.GET("/health", h.System.Health)

	v1 := engine.Group("/api/v1")
	{
		offers := v1.Group("/offers")
		{
			offers.POST("/generate-pdf", h.Offer.GeneratePDF)
		}
	}

	return engine
}
