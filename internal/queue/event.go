// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/park-ledger/internal/model"
)

// BookingConfirmedEvent is published when a booking is confirmed.  It
// carries enough for a consumer to send the receipt without reading the
// ledger.
type BookingConfirmedEvent struct {
	BookingID    string `json:"booking_id"`
	SyncID       string `json:"sync_id"`
	GuestName    string `json:"guest_name"`
	GuestContact string `json:"guest_contact"`
	VisitDate    string `json:"visit_date"`
	Slot         string `json:"slot"`
	SlotLabel    string `json:"slot_label"`
	Adults       int    `json:"adults"`
	Kids         int    `json:"kids"`
	Amount       int64  `json:"amount"`
	Discount     int64  `json:"discount"`
	PaymentRef   string `json:"payment_ref,omitempty"`
	ConfirmedAt  string `json:"confirmed_at"`
}

// NewBookingConfirmedEvent builds the event for a confirmed booking.
func NewBookingConfirmedEvent(b model.Booking, syncID string, at time.Time) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:    b.ID,
		SyncID:       syncID,
		GuestName:    b.GuestName,
		GuestContact: b.GuestContact,
		VisitDate:    b.VisitDate,
		Slot:         string(b.Slot),
		SlotLabel:    b.Slot.Label(),
		Adults:       b.Adults,
		Kids:         b.Kids,
		Amount:       b.Amount,
		Discount:     b.Discount,
		PaymentRef:   b.PaymentRef,
		ConfirmedAt:  at.UTC().Format(time.RFC3339),
	}
}
