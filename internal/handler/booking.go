package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/pricing"
	"github.com/iliyamo/park-ledger/internal/service"
)

// BookingHandler serves the guest facing booking flow.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(s *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: s}
}

type quoteReq struct {
	VisitDate string `json:"visit_date"`
	Slot      string `json:"slot"`
	Adults    int    `json:"adults"`
	Kids      int    `json:"kids"`
}

type checkoutReq struct {
	quoteReq
	GuestName    string `json:"guest_name"`
	GuestContact string `json:"guest_contact"`
}

type confirmReq struct {
	Token      string `json:"token"`
	PaymentRef string `json:"payment_ref"`
}

// toRequest clamps the party the way the booking form does: at least one
// adult and never negative kids.
func (r quoteReq) toRequest() (pricing.Request, bool) {
	slot, ok := model.ParseSlot(r.Slot)
	if !ok {
		return pricing.Request{}, false
	}
	return pricing.Request{
		Slot:      slot,
		VisitDate: strings.TrimSpace(r.VisitDate),
		Adults:    max(r.Adults, 1),
		Kids:      max(r.Kids, 0),
	}, true
}

// Quote prices a party without touching the ledger.
func (h *BookingHandler) Quote(c echo.Context) error {
	var req quoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pr, ok := req.toRequest()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown slot"})
	}
	q, err := h.Bookings.Quote(pr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Checkout creates a pending draft.
func (h *BookingHandler) Checkout(c echo.Context) error {
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pr, ok := req.toRequest()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown slot"})
	}
	draft, err := h.Bookings.Checkout(c.Request().Context(), service.CheckoutRequest{
		Request:      pr,
		GuestName:    req.GuestName,
		GuestContact: req.GuestContact,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, draft)
}

// Confirm completes the simulated payment.
func (h *BookingHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	b, err := h.Bookings.Confirm(c.Request().Context(), req.Token, req.PaymentRef)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List returns the ledger.  Optional filters: date, slot, status.
func (h *BookingHandler) List(c echo.Context) error {
	f := service.BookingFilter{
		VisitDate: c.QueryParam("date"),
		Status:    model.BookingStatus(c.QueryParam("status")),
	}
	if s := c.QueryParam("slot"); s != "" {
		slot, ok := model.ParseSlot(s)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown slot"})
		}
		f.Slot = slot
	}
	list := h.Bookings.Bookings(f)
	return c.JSON(http.StatusOK, echo.Map{"bookings": list, "count": len(list)})
}

// Occupancy reports confirmed guests for ?date=&slot=.
func (h *BookingHandler) Occupancy(c echo.Context) error {
	slot, ok := model.ParseSlot(c.QueryParam("slot"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown slot"})
	}
	view, err := h.Bookings.Occupancy(c.QueryParam("date"), slot)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
