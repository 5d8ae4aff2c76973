package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/ident"
	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/store"
)

// IssueRequest is a locker desk rental.
type IssueRequest struct {
	GuestName    string              `json:"guest_name"`
	GuestContact string              `json:"guest_contact"`
	Lockers      []string            `json:"lockers"`
	Costumes     model.CostumeCounts `json:"costumes"`
}

// LockerService runs the locker and costume desk.  Its ledger is local to
// this installation and is never reconciled with the remote ledger.
type LockerService struct {
	store  *store.Store
	issuer *ident.ReceiptIssuer
	now    func() time.Time
	log    *logrus.Entry
}

func NewLockerService(st *store.Store, issuer *ident.ReceiptIssuer) *LockerService {
	return &LockerService{
		store:  st,
		issuer: issuer,
		now:    time.Now,
		log:    logrus.WithField("component", "locker"),
	}
}

// Issue prices the rental from the current locker rates and records a new
// receipt.
func (s *LockerService) Issue(ctx context.Context, req IssueRequest) (model.LockerReceipt, error) {
	lockers := make([]string, 0, len(req.Lockers))
	seen := make(map[string]bool, len(req.Lockers))
	for _, l := range req.Lockers {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		lockers = append(lockers, l)
	}
	if req.Costumes.Adult < 0 || req.Costumes.Kid < 0 {
		return model.LockerReceipt{}, fmt.Errorf("%w: costume counts cannot be negative", ErrInvalidRequest)
	}
	if len(lockers) == 0 && req.Costumes.Total() == 0 {
		return model.LockerReceipt{}, fmt.Errorf("%w: nothing to issue", ErrInvalidRequest)
	}

	now := s.now()
	id, err := s.issuer.Next(ctx, now)
	if err != nil {
		return model.LockerReceipt{}, fmt.Errorf("issue receipt id: %w", err)
	}

	rates := s.store.Settings().LockerRates
	n, c := int64(len(lockers)), int64(req.Costumes.Total())
	r := model.LockerReceipt{
		ID:           id,
		GuestName:    strings.TrimSpace(req.GuestName),
		GuestContact: strings.TrimSpace(req.GuestContact),
		Lockers:      lockers,
		Costumes:     req.Costumes,
		Rent:         n*rates.LockerRent + c*rates.CostumeRent,
		Deposit:      n*rates.LockerDeposit + c*rates.CostumeDeposit,
		IssuedAt:     now.UTC(),
	}
	s.store.PrependLocker(r)
	s.log.WithFields(logrus.Fields{"receipt_id": id, "lockers": len(lockers), "costumes": c}).Info("locker receipt issued")
	return r, nil
}

// Return marks a receipt returned so the deposit can be refunded.
func (s *LockerService) Return(_ context.Context, id string) (model.LockerReceipt, error) {
	now := s.now().UTC()
	r, err := s.store.UpdateLocker(id, func(r *model.LockerReceipt) error {
		if r.Returned {
			return ErrAlreadyReturned
		}
		r.Returned = true
		r.ReturnedAt = &now
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrReceiptNotFound) && !errors.Is(err, ErrAlreadyReturned) {
			s.log.WithError(err).WithField("receipt_id", id).Error("return failed")
		}
		return model.LockerReceipt{}, err
	}
	s.log.WithField("receipt_id", id).Info("locker receipt returned")
	return r, nil
}

// List returns the desk ledger, most recent first.  When open is true only
// receipts not yet returned are included.
func (s *LockerService) List(open bool) []model.LockerReceipt {
	all := s.store.Lockers()
	if !open {
		return all
	}
	out := make([]model.LockerReceipt, 0, len(all))
	for _, r := range all {
		if !r.Returned {
			out = append(out, r)
		}
	}
	return out
}
