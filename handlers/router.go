package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes and CORS policy.
func NewRouter(h *WatermarkHandler, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	config.ExposeHeaders = []string{
		"X-Watermark-PSNR",
		"X-Watermark-Bits",
		"X-Watermark-Frames",
		"X-Watermark-Strength",
		"X-Watermark-Embedded",
		"X-Watermark-Checksum",
		"Content-Disposition",
	}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		wm := api.Group("/watermark")
		{
			wm.POST("/embed", h.EmbedWatermark)
			wm.POST("/extract", h.ExtractWatermark)
		}
	}

	return router
}
