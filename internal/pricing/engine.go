package pricing

import (
	"fmt"
	"math"

	"github.com/iliyamo/park-ledger/internal/model"
)

// StandardLabel is shown when no tier applies.
const StandardLabel = "Standard rate"

// Request is the party being priced.  Callers validate it first: adults
// >= 1, kids >= 0, a known slot and a date that is not blocked.
type Request struct {
	Slot      model.Slot `json:"slot"`
	VisitDate string     `json:"visit_date"`
	Adults    int        `json:"adults"`
	Kids      int        `json:"kids"`
}

// Quote is the priced result for a Request.
type Quote struct {
	Slot            model.Slot `json:"slot"`
	VisitDate       string     `json:"visit_date"`
	Adults          int        `json:"adults"`
	Kids            int        `json:"kids"`
	AdultRate       int64      `json:"adult_rate"`
	KidRate         int64      `json:"kid_rate"`
	Subtotal        int64      `json:"subtotal"`
	DiscountPercent int        `json:"discount_percent"`
	Discount        int64      `json:"discount"`
	Total           int64      `json:"total"`
	Label           string     `json:"label"`
	Occupancy       int        `json:"occupancy"`
	Remaining       int        `json:"remaining"`
}

// Discount returns round(subtotal * percent / 100).
func Discount(subtotal int64, percent int) int64 {
	return int64(math.Round(float64(subtotal) * float64(percent) / 100))
}

// Price quotes req against the ledger snapshot and settings.
func Price(req Request, bookings []model.Booking, settings model.Settings) Quote {
	rate := settings.RateFor(req.Slot)
	subtotal := int64(req.Adults)*rate.Adult + int64(req.Kids)*rate.Kid

	occupancy := Occupancy(bookings, req.VisitDate, req.Slot)
	q := Quote{
		Slot:      req.Slot,
		VisitDate: req.VisitDate,
		Adults:    req.Adults,
		Kids:      req.Kids,
		AdultRate: rate.Adult,
		KidRate:   rate.Kid,
		Subtotal:  subtotal,
		Label:     StandardLabel,
		Occupancy: occupancy,
		Remaining: Remaining(settings.CapacityPerShift, occupancy),
	}
	if tier, ok := SelectTier(settings.TiersFor(req.Slot), occupancy); ok {
		q.DiscountPercent = tier.Percent
		q.Label = tier.Label
		if q.Label == "" {
			q.Label = fmt.Sprintf("%d%% off", tier.Percent)
		}
	}
	q.Discount = Discount(subtotal, q.DiscountPercent)
	q.Total = subtotal - q.Discount
	return q
}
