package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/park-ledger/internal/reconcile"
)

// HealthHandler reports liveness and the reconciliation loop's state.
type HealthHandler struct {
	Engine *reconcile.Engine
}

func NewHealthHandler(e *reconcile.Engine) *HealthHandler { return &HealthHandler{Engine: e} }

func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":       "ok",
		"sync_running": h.Engine.Running(),
		"sync_state":   h.Engine.State().String(),
	})
}
