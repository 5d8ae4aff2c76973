// Package ident issues human readable identifiers for bookings and locker
// receipts.
package ident

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// BookingPrefix starts every booking identifier.
	BookingPrefix = "BK"
	// ReceiptPrefix starts every locker receipt identifier.
	ReceiptPrefix = "LKR"

	bookingMin = 100000
	bookingMax = 999999 // exclusive
)

// Source is the random source used for booking identifiers.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the process wide generator.
var DefaultSource Source = globalSource{}

// BookingID returns BookingPrefix followed by a six digit number in
// [100000, 999999).  Uniqueness is not checked against the ledger.
func BookingID(src Source) string {
	if src == nil {
		src = DefaultSource
	}
	return fmt.Sprintf("%s%d", BookingPrefix, bookingMin+src.IntN(bookingMax-bookingMin))
}

// CounterStore persists one counter per key.  Next must return the value
// after incrementing, starting at 1 for an unseen key.
type CounterStore interface {
	NextCounter(ctx context.Context, key string) (int, error)
}

// ReceiptIssuer mints day scoped receipt identifiers: prefix, YYMMDD and a
// four digit counter that restarts every calendar day because every day
// uses a fresh counter key.
type ReceiptIssuer struct {
	counters CounterStore
	loc      *time.Location
}

// NewReceiptIssuer builds an issuer.  loc decides where a calendar day
// starts; nil means local time.
func NewReceiptIssuer(counters CounterStore, loc *time.Location) *ReceiptIssuer {
	if loc == nil {
		loc = time.Local
	}
	return &ReceiptIssuer{counters: counters, loc: loc}
}

// DayKey is the counter key for the calendar day containing now.
func (r *ReceiptIssuer) DayKey(now time.Time) string {
	return "receipt_counter:" + now.In(r.loc).Format("060102")
}

// Next returns the next receipt identifier for the day containing now.
func (r *ReceiptIssuer) Next(ctx context.Context, now time.Time) (string, error) {
	n, err := r.counters.NextCounter(ctx, r.DayKey(now))
	if err != nil {
		return "", fmt.Errorf("next receipt counter: %w", err)
	}
	return fmt.Sprintf("%s%s%04d", ReceiptPrefix, now.In(r.loc).Format("060102"), n), nil
}
