package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/soundrelay/soundrelay/internal/application/config"
	"github.com/soundrelay/soundrelay/internal/infra/ports/http/handlers"
	"github.com/soundrelay/soundrelay/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	soundHandler *handlers.SoundHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := e.Group("/api")
	{
		api.GET("/sounds", soundHandler.ListSounds)
	}

	e.GET("/ws", wsHandler.Handle)

	e.Static("/sounds", cfg.SoundsDir)

	return e
}
