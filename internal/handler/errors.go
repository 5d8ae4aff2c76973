package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/service"
	"github.com/iliyamo/park-ledger/internal/store"
)

// writeError maps service errors onto HTTP status codes.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrUnknownSlot),
		errors.Is(err, model.ErrInvalidSettings):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDateBlocked),
		errors.Is(err, service.ErrAlreadyReturned):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, store.ErrReceiptNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	logrus.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
