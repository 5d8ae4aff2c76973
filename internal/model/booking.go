package model

import "time"

// BookingStatus tracks where a booking is in its lifecycle.  Only
// pending -> confirmed is exercised; cancelled exists for admin overwrites.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// DateLayout is the calendar date format used for visit dates and
// blocked dates.
const DateLayout = "2006-01-02"

// Booking is one reservation in the ledger.  The ledger is ordered most
// recent first.
//
// Fields:
//  ID              – human readable identifier (see ident.BookingID).
//  GuestName       – name given at checkout.
//  GuestContact    – phone number used for receipts.
//  VisitDate       – calendar date, YYYY-MM-DD.
//  Slot            – booked time window.
//  Adults, Kids    – party size; adults >= 1, kids >= 0.
//  Amount          – total charged, fixed by the quote taken at checkout.
//  Discount        – discount included in Amount.
//  DiscountPercent – percent of the tier that applied, 0 when none.
//  Status          – pending, confirmed or cancelled.
//  PaymentRef      – reference returned by the simulated payment step.
//  CreatedAt       – when the booking entered the ledger.
type Booking struct {
	ID              string        `json:"id"`
	GuestName       string        `json:"guest_name"`
	GuestContact    string        `json:"guest_contact"`
	VisitDate       string        `json:"visit_date"`
	Slot            Slot          `json:"slot"`
	Adults          int           `json:"adults"`
	Kids            int           `json:"kids"`
	Amount          int64         `json:"amount"`
	Discount        int64         `json:"discount"`
	DiscountPercent int           `json:"discount_percent"`
	Status          BookingStatus `json:"status"`
	PaymentRef      string        `json:"payment_ref,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Guests is the occupancy a booking contributes to its slot.
func (b Booking) Guests() int { return b.Adults + b.Kids }
