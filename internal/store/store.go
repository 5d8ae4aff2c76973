// Package store is the local ledger: the in-process copy of bookings,
// settings, the locker desk ledger, the synchronization identifier and the
// per-day receipt counters.
//
// Every write replaces or prepends in memory, persists the whole affected
// collection synchronously and then notifies subscribers synchronously.
// Persistence failures are logged and otherwise ignored; there is no
// durability acknowledgment.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/repository"
)

const (
	keyBookings = "bookings"
	keyLockers  = "lockers"
	keySettings = "settings"
	keySyncID   = "sync_id"

	persistTimeout = 5 * time.Second
)

// ErrReceiptNotFound is returned by UpdateLocker for unknown receipt ids.
var ErrReceiptNotFound = errors.New("locker receipt not found")

// Store owns the local ledger for the lifetime of the process.  A single
// mutex serializes writers so HTTP handlers and the reconciliation loop
// observe one order of writes.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	bookings  []model.Booking
	lockers   []model.LockerReceipt
	settings  model.Settings
	syncID    string
	syncIDSet bool
	counters  map[string]int
	versions  map[model.ChangeKind]uint64

	subMu   sync.Mutex
	subs    map[int]func(model.Change)
	nextSub int

	log *logrus.Entry
}

// Open loads every collection from p.  Missing documents start from the
// defaults; a document that fails to decode is logged and replaced by the
// defaults rather than blocking startup.
func Open(ctx context.Context, p Persister) (*Store, error) {
	s := &Store{
		persister: p,
		bookings:  []model.Booking{},
		lockers:   []model.LockerReceipt{},
		settings:  model.DefaultSettings(),
		syncID:    model.DefaultSyncID,
		counters:  map[string]int{},
		versions:  map[model.ChangeKind]uint64{},
		subs:      map[int]func(model.Change){},
		log:       logrus.WithField("component", "store"),
	}

	if err := s.load(ctx, keyBookings, func(doc []byte) error {
		return json.Unmarshal(doc, &s.bookings)
	}); err != nil {
		return nil, err
	}
	if err := s.load(ctx, keyLockers, func(doc []byte) error {
		return json.Unmarshal(doc, &s.lockers)
	}); err != nil {
		return nil, err
	}
	if err := s.load(ctx, keySettings, func(doc []byte) error {
		settings, err := model.DecodeSettings(doc)
		s.settings = settings
		return err
	}); err != nil {
		return nil, err
	}
	if err := s.load(ctx, keySyncID, func(doc []byte) error {
		var id string
		if err := json.Unmarshal(doc, &id); err != nil {
			return err
		}
		if id != "" {
			s.syncID = id
			s.syncIDSet = true
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if s.bookings == nil {
		s.bookings = []model.Booking{}
	}
	if s.lockers == nil {
		s.lockers = []model.LockerReceipt{}
	}

	s.log.WithFields(logrus.Fields{
		"bookings": len(s.bookings),
		"lockers":  len(s.lockers),
		"sync_id":  s.syncID,
	}).Info("local ledger loaded")
	return s, nil
}

func (s *Store) load(ctx context.Context, key string, decode func([]byte) error) error {
	doc, err := s.persister.Load(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := decode(doc); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("stored snapshot unreadable, using defaults")
	}
	return nil
}

// Bookings returns a copy of the booking ledger, most recent first.
func (s *Store) Bookings() []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Booking{}, s.bookings...)
}

// Settings returns a deep copy of the current settings.
func (s *Store) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Lockers returns a copy of the locker desk ledger, most recent first.
func (s *Store) Lockers() []model.LockerReceipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LockerReceipt, len(s.lockers))
	for i, r := range s.lockers {
		out[i] = cloneReceipt(r)
	}
	return out
}

// SyncID returns the synchronization identifier this installation uses.
func (s *Store) SyncID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncID
}

// Version is a last-modified marker: it increases on every write to the
// collection and never changes otherwise.
func (s *Store) Version(kind model.ChangeKind) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[kind]
}

// ReplaceBookings overwrites the booking ledger wholesale.
func (s *Store) ReplaceBookings(list []model.Booking) {
	s.mu.Lock()
	s.bookings = append([]model.Booking{}, list...)
	s.persistLocked(keyBookings, s.bookings)
	change := s.bumpLocked(model.ChangeBookings)
	s.mu.Unlock()
	s.notify(change)
}

// PrependBooking inserts b at the head of the ledger.
func (s *Store) PrependBooking(b model.Booking) {
	s.mu.Lock()
	s.bookings = append([]model.Booking{b}, s.bookings...)
	s.persistLocked(keyBookings, s.bookings)
	change := s.bumpLocked(model.ChangeBookings)
	s.mu.Unlock()
	s.notify(change)
}

// ReplaceSettings overwrites the settings object wholesale.
func (s *Store) ReplaceSettings(settings model.Settings) {
	s.mu.Lock()
	s.settings = settings.Clone()
	s.persistLocked(keySettings, s.settings)
	change := s.bumpLocked(model.ChangeSettings)
	s.mu.Unlock()
	s.notify(change)
}

// PrependLocker inserts a new receipt at the head of the desk ledger.
func (s *Store) PrependLocker(r model.LockerReceipt) {
	s.mu.Lock()
	s.lockers = append([]model.LockerReceipt{cloneReceipt(r)}, s.lockers...)
	s.persistLocked(keyLockers, s.lockers)
	change := s.bumpLocked(model.ChangeLockers)
	s.mu.Unlock()
	s.notify(change)
}

// UpdateLocker applies fn to the receipt with the given id and persists
// the whole desk ledger.  When fn returns an error nothing is written.
func (s *Store) UpdateLocker(id string, fn func(*model.LockerReceipt) error) (model.LockerReceipt, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.lockers {
		if s.lockers[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return model.LockerReceipt{}, ErrReceiptNotFound
	}
	updated := cloneReceipt(s.lockers[idx])
	if err := fn(&updated); err != nil {
		s.mu.Unlock()
		return model.LockerReceipt{}, err
	}
	s.lockers[idx] = updated
	s.persistLocked(keyLockers, s.lockers)
	change := s.bumpLocked(model.ChangeLockers)
	s.mu.Unlock()
	s.notify(change)
	return cloneReceipt(updated), nil
}

// SeedSyncID adopts id as the synchronization identifier unless one has
// already been stored.  It reports whether id was adopted.
func (s *Store) SeedSyncID(id string) bool {
	s.mu.RLock()
	set := s.syncIDSet
	s.mu.RUnlock()
	if set || id == "" {
		return false
	}
	s.SetSyncID(id)
	return true
}

// SetSyncID records a new synchronization identifier.
func (s *Store) SetSyncID(id string) {
	s.mu.Lock()
	s.syncID = id
	s.syncIDSet = true
	s.persistLocked(keySyncID, id)
	change := s.bumpLocked(model.ChangeSyncID)
	s.mu.Unlock()
	s.notify(change)
}

// NextCounter increments and returns the counter stored under key.  The
// first call for a key loads any value persisted by an earlier process.
func (s *Store) NextCounter(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.counters[key]
	if !ok {
		doc, err := s.persister.Load(ctx, key)
		switch {
		case err == nil:
			n, err = strconv.Atoi(string(doc))
			if err != nil {
				return 0, fmt.Errorf("counter %s: %w", key, err)
			}
		case errors.Is(err, repository.ErrNotFound):
			n = 0
		default:
			return 0, fmt.Errorf("counter %s: %w", key, err)
		}
	}
	n++
	s.counters[key] = n
	if err := s.persister.Save(ctx, key, []byte(strconv.Itoa(n))); err != nil {
		s.log.WithError(err).WithField("key", key).Error("persist counter failed")
	}
	return n, nil
}

// Subscribe registers fn to be called after every write.  fn runs on the
// writer's goroutine and must not call back into a Store write.
func (s *Store) Subscribe(fn func(model.Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c model.Change) {
	s.subMu.Lock()
	fns := make([]func(model.Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) bumpLocked(kind model.ChangeKind) model.Change {
	s.versions[kind]++
	return model.Change{Kind: kind, Version: s.versions[kind]}
}

func (s *Store) persistLocked(key string, v any) {
	doc, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("encode snapshot failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, key, doc); err != nil {
		s.log.WithError(err).WithField("key", key).Error("persist snapshot failed")
	}
}

func cloneReceipt(r model.LockerReceipt) model.LockerReceipt {
	r.Lockers = append([]string(nil), r.Lockers...)
	if r.ReturnedAt != nil {
		t := *r.ReturnedAt
		r.ReturnedAt = &t
	}
	return r
}
