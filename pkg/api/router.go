package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/pkg/service"
)

// Prefix is the base path of every route
const Prefix = "/api"

// NewRouter registers the catalog routes under Prefix
func NewRouter(h *CarHandler, logger *zap.Logger, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowOrigins)))

	api := router.Group(Prefix)
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/cars/latest", h.Latest)
		api.GET("/cars/search", h.Search)
		api.GET("/cars/:id", h.Detail)
		api.POST("/cars", h.Create)
	}

	router.NoRoute(func(c *gin.Context) {
		// ids containing "/" cannot match /cars/:id
		if c.Request.Method == http.MethodGet && strings.HasPrefix(c.Request.URL.Path, Prefix+"/cars/") {
			c.JSON(http.StatusNotFound, gin.H{
				"error":  service.ErrCarNotFound.Error(),
				"status": http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Not Found",
			"status": http.StatusNotFound,
		})
	})

	return router
}

func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}

	for _, o := range allowOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(allowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowOrigins
	return cfg
}

func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
		)
	}
}
