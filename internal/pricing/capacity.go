package pricing

import "github.com/iliyamo/park-ledger/internal/model"

// Occupancy sums adults and kids over confirmed bookings for exactly this
// date and slot.  It is recomputed on every call so it always reflects the
// latest local snapshot.
func Occupancy(bookings []model.Booking, date string, slot model.Slot) int {
	total := 0
	for _, b := range bookings {
		if b.Status != model.BookingStatusConfirmed {
			continue
		}
		if b.VisitDate != date || b.Slot != slot {
			continue
		}
		total += b.Guests()
	}
	return total
}

// Remaining is the advisory headroom left in a shift.  It never goes
// below zero.
func Remaining(capacity, occupancy int) int {
	if occupancy >= capacity {
		return 0
	}
	return capacity - occupancy
}
