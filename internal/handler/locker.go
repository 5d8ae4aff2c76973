package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/park-ledger/internal/service"
)

// LockerHandler serves the locker and costume desk.
type LockerHandler struct {
	Lockers *service.LockerService
}

func NewLockerHandler(s *service.LockerService) *LockerHandler { return &LockerHandler{Lockers: s} }

func (h *LockerHandler) Issue(c echo.Context) error {
	var req service.IssueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	r, err := h.Lockers.Issue(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// List returns receipts; ?open=true hides returned ones.
func (h *LockerHandler) List(c echo.Context) error {
	list := h.Lockers.List(c.QueryParam("open") == "true")
	return c.JSON(http.StatusOK, echo.Map{"receipts": list, "count": len(list)})
}

func (h *LockerHandler) Return(c echo.Context) error {
	r, err := h.Lockers.Return(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
