package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/snipline/cutout/cmd/cutout/container"
)

// RegisterImageRoutes registers image CRUD and byte-serving routes
func RegisterImageRoutes(e *echo.Echo, c *container.Container) {
	g := e.Group("/api/v1/images")

	g.POST("", c.ImageHandler.Upload)
	g.GET("", c.ImageHandler.List)
	g.GET("/:id", c.ImageHandler.Get)
	g.PATCH("/:id", c.ImageHandler.Rename)
	g.DELETE("/:id", c.ImageHandler.Delete)
	g.GET("/:id/original", c.ImageHandler.ServeOriginal)
	g.GET("/:id/processed", c.ImageHandler.ServeProcessed)
}
