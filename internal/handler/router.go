package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"sitebot/internal/middleware"
)

// Router registers routes and middleware.
func Router(dialog Dialog, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logger(logger))

	h := NewMessagesHandler(dialog, logger)
	api := r.Group("/api")
	{
		api.POST("/messages", h.Post)
		api.GET("/auth/callback", h.AuthCallback)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}
