package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundrelay/soundrelay/internal/application/constant"
	"github.com/soundrelay/soundrelay/internal/infra/adapters/catalog"
)

type SoundHandler struct {
	catalog *catalog.Catalog
}

func NewSoundHandler(catalog *catalog.Catalog) *SoundHandler {
	return &SoundHandler{catalog: catalog}
}

// ListSounds returns the available sound assets, consumed once by the
// client at session start.
func (h *SoundHandler) ListSounds(c echo.Context) error {
	sounds, err := h.catalog.List()
	if err != nil {
		slog.Error("list sounds", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read sounds directory"})
	}

	return c.JSON(http.StatusOK, sounds)
}
