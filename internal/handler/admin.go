package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/park-ledger/internal/reconcile"
	"github.com/iliyamo/park-ledger/internal/store"
)

const redactedToken = "***"

// AdminHandler serves settings and synchronization controls.
type AdminHandler struct {
	Store  *store.Store
	Engine *reconcile.Engine
}

func NewAdminHandler(st *store.Store, e *reconcile.Engine) *AdminHandler {
	return &AdminHandler{Store: st, Engine: e}
}

// GetSettings is public; credentials are redacted.
func (h *AdminHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.Settings().Redacted())
}

// SaveSettings decodes the body over the current settings, so omitted keys
// keep their value, and saves locally then remotely.  A remote failure is
// reported with 502; the local copy has already changed by then.
func (h *AdminHandler) SaveSettings(c echo.Context) error {
	current := h.Store.Settings()
	next := current.Clone()
	if err := json.NewDecoder(c.Request().Body).Decode(&next); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if next.Notification.AccessToken == redactedToken {
		next.Notification.AccessToken = current.Notification.AccessToken
	}
	if next.BlockedDates == nil {
		next.BlockedDates = []string{}
	}
	if err := next.Validate(); err != nil {
		return writeError(c, err)
	}
	if err := h.Engine.SaveSettings(c.Request().Context(), next); err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":         err.Error(),
			"saved_locally": true,
		})
	}
	return c.JSON(http.StatusOK, next.Redacted())
}

type syncIDReq struct {
	SyncID string `json:"sync_id"`
}

func (h *AdminHandler) GetSyncID(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"sync_id": h.Store.SyncID()})
}

// SetSyncID switches the remote partition and restarts the loop against it.
func (h *AdminHandler) SetSyncID(c echo.Context) error {
	var req syncIDReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	id := strings.TrimSpace(req.SyncID)
	if id == "" || strings.ContainsAny(id, " \t\n:") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sync_id must be non-empty and contain no spaces or colons"})
	}
	h.Engine.SwitchSyncID(id)
	return c.JSON(http.StatusOK, echo.Map{"sync_id": id})
}

// SyncNow runs one reconciliation cycle immediately.
func (h *AdminHandler) SyncNow(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.SyncOnce(c.Request().Context()))
}
