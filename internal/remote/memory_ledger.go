package remote

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/iliyamo/park-ledger/internal/model"
)

// MemoryLedger is an in-process Ledger.  Documents round-trip through JSON
// so readers see exactly what a network store would return.  FailWith
// makes every call fail, which simulates an unreachable backend.
type MemoryLedger struct {
	mu       sync.Mutex
	settings []byte
	bookings map[string][]byte
	failWith error
	calls    int
}

// NewMemoryLedger returns an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{bookings: map[string][]byte{}}
}

// FailWith sets the error returned by every later call; nil restores
// normal behaviour.
func (m *MemoryLedger) FailWith(err error) {
	m.mu.Lock()
	m.failWith = err
	m.mu.Unlock()
}

// Calls reports how many ledger calls were made.
func (m *MemoryLedger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemoryLedger) enter() error {
	m.calls++
	return m.failWith
}

func (m *MemoryLedger) FetchSettings(context.Context) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return model.Settings{}, err
	}
	if m.settings == nil {
		return model.Settings{}, ErrNotFound
	}
	return model.DecodeSettings(m.settings)
}

func (m *MemoryLedger) StoreSettings(_ context.Context, s model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	doc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.settings = doc
	return nil
}

func (m *MemoryLedger) FetchBookings(_ context.Context, syncID string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	doc, ok := m.bookings[syncID]
	if !ok {
		return nil, ErrNotFound
	}
	var list []model.Booking
	if err := json.Unmarshal(doc, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *MemoryLedger) StoreBookings(_ context.Context, syncID string, list []model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	if list == nil {
		list = []model.Booking{}
	}
	doc, err := json.Marshal(list)
	if err != nil {
		return err
	}
	m.bookings[syncID] = doc
	return nil
}
