// Package reconcile keeps the local ledger in step with the remote ledger.
//
// A polling loop pulls remote settings and bookings on a fixed interval and
// overwrites the local copy wholesale whenever it differs.  Local booking
// writes are pushed outward as whole lists.  There is no merge: the last
// writer wins, and a poll that lands before a push can drop a local write.
package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/remote"
	"github.com/iliyamo/park-ledger/internal/store"
)

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = 15 * time.Second

// State is the engine's position in its two state machine.
type State int32

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "idle"
}

// Result reports what one cycle replaced locally.
type Result struct {
	SyncID           string `json:"sync_id"`
	SettingsReplaced bool   `json:"settings_replaced"`
	BookingsReplaced bool   `json:"bookings_replaced"`
}

// Engine is the long lived reconciliation task.  The composition root
// starts it with Start and tears it down with Stop.
type Engine struct {
	store    *store.Store
	remote   remote.Ledger
	interval time.Duration
	log      *logrus.Entry

	inflight atomic.Int32

	switchMu sync.Mutex
	mu       sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds an idle engine.
func New(st *store.Store, ledger remote.Ledger, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{
		store:    st,
		remote:   ledger,
		interval: interval,
		log:      logrus.WithField("component", "reconcile"),
	}
}

// Interval is the polling period.
func (e *Engine) Interval() time.Duration { return e.interval }

// State reports whether any cycle is in flight, from the loop or from
// SyncOnce.
func (e *Engine) State() State {
	if e.inflight.Load() > 0 {
		return Syncing
	}
	return Idle
}

// Running reports whether the polling loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

// Start launches the polling loop for the current synchronization
// identifier.  The first cycle runs immediately.  Calling Start on a running
// engine does nothing.  The loop ends when ctx is cancelled or Stop is
// called.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	e.parent = ctx
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel, e.done = cancel, done
	go e.run(loopCtx, done)
}

// Stop cancels the loop and waits for an in-flight cycle to return.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SwitchSyncID tears down the current loop, records the new identifier and
// starts a fresh loop against it.  An engine that was never started only
// records the identifier.  Concurrent switches run one after another.
func (e *Engine) SwitchSyncID(id string) {
	e.switchMu.Lock()
	defer e.switchMu.Unlock()

	e.mu.Lock()
	parent, wasRunning := e.parent, e.cancel != nil
	e.mu.Unlock()

	e.Stop()
	e.store.SetSyncID(id)
	e.log.WithField("sync_id", id).Info("synchronization identifier changed")
	if wasRunning && parent.Err() == nil {
		e.Start(parent)
	}
}

// run reads the synchronization identifier at the start of every cycle, so
// the partition it polls is always the one PushBookings writes to.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	log := e.log.WithFields(logrus.Fields{"sync_id": e.store.SyncID(), "interval": e.interval.String()})
	log.Info("reconciliation loop started")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.SyncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("reconciliation loop stopped")
			return
		case <-ticker.C:
			e.SyncOnce(ctx)
		}
	}
}

// SyncOnce runs a single cycle against the current synchronization
// identifier.  Remote failures are logged and reported as "nothing
// replaced".
func (e *Engine) SyncOnce(ctx context.Context) Result {
	return e.cycle(ctx, e.store.SyncID())
}

func (e *Engine) cycle(ctx context.Context, syncID string) Result {
	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	res := Result{SyncID: syncID}
	log := e.log.WithFields(logrus.Fields{"sync_id": syncID, "cycle": uuid.NewString()})

	if remoteSettings, err := e.remote.FetchSettings(ctx); err == nil {
		if !sameDocument(remoteSettings.Clone(), e.store.Settings()) {
			e.store.ReplaceSettings(remoteSettings)
			res.SettingsReplaced = true
		}
	} else if !errors.Is(err, remote.ErrNotFound) {
		log.WithError(err).Warn("fetch remote settings failed")
	}

	if remoteBookings, err := e.remote.FetchBookings(ctx, syncID); err == nil {
		if remoteBookings == nil {
			remoteBookings = []model.Booking{}
		}
		if !sameDocument(remoteBookings, e.store.Bookings()) {
			e.store.ReplaceBookings(remoteBookings)
			res.BookingsReplaced = true
		}
	} else if !errors.Is(err, remote.ErrNotFound) {
		log.WithError(err).Warn("fetch remote bookings failed")
	}

	if res.SettingsReplaced || res.BookingsReplaced {
		log.WithFields(logrus.Fields{
			"settings_replaced": res.SettingsReplaced,
			"bookings_replaced": res.BookingsReplaced,
		}).Info("local ledger replaced from remote")
	}
	return res
}

// PushBookings writes the full local booking list to the remote partition.
// It does not retry and never reports failure to the caller: a dropped push
// leaves the write local until the next poll overwrites it.
func (e *Engine) PushBookings(ctx context.Context) {
	syncID := e.store.SyncID()
	list := e.store.Bookings()
	if err := e.remote.StoreBookings(ctx, syncID, list); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"sync_id":  syncID,
			"bookings": len(list),
		}).Warn("push bookings dropped")
	}
}

// SaveSettings is the foreground settings save.  The local copy is replaced
// first; a remote failure is returned so the admin sees it.
func (e *Engine) SaveSettings(ctx context.Context, s model.Settings) error {
	e.store.ReplaceSettings(s)
	if err := e.remote.StoreSettings(ctx, s); err != nil {
		return fmt.Errorf("push settings: %w", err)
	}
	return nil
}

// sameDocument compares the canonical JSON encodings of a and b, which is
// how both sides of the ledger are stored.
func sameDocument(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
