package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/ident"
	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/pricing"
	q "github.com/iliyamo/park-ledger/internal/queue"
	"github.com/iliyamo/park-ledger/internal/store"
)

const publishTimeout = 10 * time.Second

// Pusher sends the local booking list outward.  reconcile.Engine is the
// production implementation.
type Pusher interface {
	PushBookings(ctx context.Context)
}

// CheckoutRequest is a quote request plus the guest details.
type CheckoutRequest struct {
	pricing.Request
	GuestName    string
	GuestContact string
}

// BookingFilter narrows a ledger listing.  Zero fields match everything.
type BookingFilter struct {
	VisitDate string
	Slot      model.Slot
	Status    model.BookingStatus
}

// OccupancyView is the capacity picture for one date and slot.
type OccupancyView struct {
	VisitDate string     `json:"visit_date"`
	Slot      model.Slot `json:"slot"`
	Occupancy int        `json:"occupancy"`
	Capacity  int        `json:"capacity"`
	Remaining int        `json:"remaining"`
}

// BookingService drives quote, checkout and confirm over the local ledger.
type BookingService struct {
	store     *store.Store
	pusher    Pusher
	publisher EventPublisher
	drafts    *DraftBook
	ids       ident.Source
	now       func() time.Time
	log       *logrus.Entry
}

func NewBookingService(st *store.Store, pusher Pusher, publisher EventPublisher, drafts *DraftBook) *BookingService {
	return &BookingService{
		store:     st,
		pusher:    pusher,
		publisher: publisher,
		drafts:    drafts,
		ids:       ident.DefaultSource,
		now:       time.Now,
		log:       logrus.WithField("component", "booking"),
	}
}

func validate(req pricing.Request) error {
	if !req.Slot.Valid() {
		return ErrUnknownSlot
	}
	if _, err := time.Parse(model.DateLayout, req.VisitDate); err != nil {
		return fmt.Errorf("%w: visit_date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if req.Adults < 1 || req.Kids < 0 {
		return fmt.Errorf("%w: at least one adult is required", ErrInvalidRequest)
	}
	return nil
}

// Quote prices req against the current ledger.  Blocked dates are
// rejected before pricing.
func (s *BookingService) Quote(req pricing.Request) (pricing.Quote, error) {
	if err := validate(req); err != nil {
		return pricing.Quote{}, err
	}
	settings := s.store.Settings()
	if settings.IsBlocked(req.VisitDate) {
		return pricing.Quote{}, ErrDateBlocked
	}
	return pricing.Price(req, s.store.Bookings(), settings), nil
}

// Checkout fixes the price and parks a pending draft until payment.
// Capacity is advisory: a party larger than the remaining capacity still
// gets a draft, flagged OverCapacity.
func (s *BookingService) Checkout(ctx context.Context, req CheckoutRequest) (Draft, error) {
	if strings.TrimSpace(req.GuestName) == "" {
		return Draft{}, fmt.Errorf("%w: guest_name is required", ErrInvalidRequest)
	}
	quote, err := s.Quote(req.Request)
	if err != nil {
		return Draft{}, err
	}

	now := s.now().UTC()
	draft := Draft{
		Token:        uuid.NewString(),
		Quote:        quote,
		OverCapacity: req.Adults+req.Kids > quote.Remaining,
		Booking: model.Booking{
			GuestName:       strings.TrimSpace(req.GuestName),
			GuestContact:    strings.TrimSpace(req.GuestContact),
			VisitDate:       req.VisitDate,
			Slot:            req.Slot,
			Adults:          req.Adults,
			Kids:            req.Kids,
			Amount:          quote.Total,
			Discount:        quote.Discount,
			DiscountPercent: quote.DiscountPercent,
			Status:          model.BookingStatusPending,
			CreatedAt:       now,
		},
	}
	draft = s.drafts.put(draft, now)
	log := s.log.WithFields(logrus.Fields{
		"visit_date": req.VisitDate,
		"slot":       req.Slot,
		"amount":     quote.Total,
	})
	if draft.OverCapacity {
		log.WithField("remaining", quote.Remaining).Warn("checkout draft exceeds remaining capacity")
	} else {
		log.Debug("checkout draft created")
	}
	return draft, nil
}

// Confirm completes the simulated payment for a draft: it mints the
// booking id, prepends the booking to the local ledger, pushes the ledger
// and publishes the confirmation.  Push and publish failures never fail
// the confirmation.
func (s *BookingService) Confirm(ctx context.Context, token, paymentRef string) (model.Booking, error) {
	now := s.now().UTC()
	draft, ok := s.drafts.take(token, now)
	if !ok {
		return model.Booking{}, ErrDraftNotFound
	}

	b := draft.Booking
	b.ID = ident.BookingID(s.ids)
	b.Status = model.BookingStatusConfirmed
	b.CreatedAt = now
	b.PaymentRef = strings.TrimSpace(paymentRef)
	if b.PaymentRef == "" {
		b.PaymentRef = "sim_" + uuid.NewString()
	}

	s.store.PrependBooking(b)
	log := s.log.WithFields(logrus.Fields{"booking_id": b.ID, "sync_id": s.store.SyncID()})
	log.Info("booking confirmed")

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	s.pusher.PushBookings(bg)
	if s.publisher != nil {
		ev := q.NewBookingConfirmedEvent(b, s.store.SyncID(), now)
		if err := s.publisher.PublishBookingConfirmed(bg, ev); err != nil {
			log.WithError(err).Warn("confirmation event not published")
		}
	}
	return b, nil
}

// Bookings lists the ledger, most recent first.
func (s *BookingService) Bookings(f BookingFilter) []model.Booking {
	all := s.store.Bookings()
	out := make([]model.Booking, 0, len(all))
	for _, b := range all {
		if f.VisitDate != "" && b.VisitDate != f.VisitDate {
			continue
		}
		if f.Slot != "" && b.Slot != f.Slot {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Occupancy reports confirmed guests and advisory remaining capacity.
func (s *BookingService) Occupancy(date string, slot model.Slot) (OccupancyView, error) {
	if !slot.Valid() {
		return OccupancyView{}, ErrUnknownSlot
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return OccupancyView{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	settings := s.store.Settings()
	occ := pricing.Occupancy(s.store.Bookings(), date, slot)
	return OccupancyView{
		VisitDate: date,
		Slot:      slot,
		Occupancy: occ,
		Capacity:  settings.CapacityPerShift,
		Remaining: pricing.Remaining(settings.CapacityPerShift, occ),
	}, nil
}
