package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/pricing"
)

// Draft is a pending booking awaiting payment.  It never enters the ledger;
// only Confirm writes a booking.  OverCapacity warns that the party is
// larger than what the slot had left when the draft was priced.
type Draft struct {
	Token        string        `json:"token"`
	Booking      model.Booking `json:"booking"`
	Quote        pricing.Quote `json:"quote"`
	OverCapacity bool          `json:"over_capacity"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// DraftBook holds checkout drafts until they are confirmed or expire.
type DraftBook struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]Draft
}

func NewDraftBook(ttl time.Duration) *DraftBook {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &DraftBook{ttl: ttl, drafts: map[string]Draft{}}
}

func (d *DraftBook) put(draft Draft, now time.Time) Draft {
	draft.ExpiresAt = now.Add(d.ttl)
	d.mu.Lock()
	d.drafts[draft.Token] = draft
	d.mu.Unlock()
	return draft
}

// take removes and returns the draft if it exists and has not expired.
func (d *DraftBook) take(token string, now time.Time) (Draft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	draft, ok := d.drafts[token]
	if !ok {
		return Draft{}, false
	}
	delete(d.drafts, token)
	if !now.Before(draft.ExpiresAt) {
		return Draft{}, false
	}
	return draft, true
}

// Len reports how many drafts are held.
func (d *DraftBook) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.drafts)
}

// Sweep drops expired drafts and reports how many were removed.
func (d *DraftBook) Sweep(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for token, draft := range d.drafts {
		if !now.Before(draft.ExpiresAt) {
			delete(d.drafts, token)
			n++
		}
	}
	return n
}

// RunSweeper sweeps on every tick until ctx is cancelled.
func (d *DraftBook) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.Info("draft sweeper started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("draft sweeper stopped")
			return
		case now := <-ticker.C:
			if n := d.Sweep(now); n > 0 {
				logrus.WithField("expired", n).Info("expired checkout drafts removed")
			}
		}
	}
}
