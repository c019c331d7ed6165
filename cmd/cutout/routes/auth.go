package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/snipline/cutout/cmd/cutout/container"
)

// RegisterAuthRoutes registers session lifecycle routes
func RegisterAuthRoutes(e *echo.Echo, c *container.Container) {
	g := e.Group("/api/v1/auth")

	g.POST("/login", c.AuthHandler.Login)
	g.POST("/logout", c.AuthHandler.Logout)
	g.GET("/whoami", c.AuthHandler.Whoami)
}
