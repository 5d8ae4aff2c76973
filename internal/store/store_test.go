package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/park-ledger/internal/model"
)

func openStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := Open(context.Background(), p)
	require.NoError(t, err)
	return s
}

func booking(id string) model.Booking {
	return model.Booking{
		ID:        id,
		VisitDate: "2026-11-02",
		Slot:      model.SlotMorning,
		Adults:    2,
		Status:    model.BookingStatusConfirmed,
		CreatedAt: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
	}
}

func TestOpenStartsFromDefaults(t *testing.T) {
	s := openStore(t, NewMemoryPersister())

	assert.Empty(t, s.Bookings())
	assert.Empty(t, s.Lockers())
	assert.Equal(t, model.DefaultSyncID, s.SyncID())
	assert.Equal(t, model.DefaultSettings(), s.Settings())
}

func TestWritesSurviveReopen(t *testing.T) {
	p := NewMemoryPersister()
	s := openStore(t, p)

	s.PrependBooking(booking("BK100001"))
	s.PrependBooking(booking("BK100002"))
	settings := model.DefaultSettings()
	settings.CapacityPerShift = 42
	s.ReplaceSettings(settings)
	s.SetSyncID("branch-two")
	s.PrependLocker(model.LockerReceipt{ID: "LKR2610190001", Lockers: []string{"A1"}})

	reopened := openStore(t, p)
	require.Len(t, reopened.Bookings(), 2)
	assert.Equal(t, "BK100002", reopened.Bookings()[0].ID, "most recent first")
	assert.Equal(t, 42, reopened.Settings().CapacityPerShift)
	assert.Equal(t, "branch-two", reopened.SyncID())
	require.Len(t, reopened.Lockers(), 1)
	assert.Equal(t, []string{"A1"}, reopened.Lockers()[0].Lockers)
}

func TestSettingsMissingKeysKeepDefaults(t *testing.T) {
	p := NewMemoryPersister()
	require.NoError(t, p.Save(context.Background(), keySettings, []byte(`{"capacity_per_shift":80}`)))

	s := openStore(t, p)
	got := s.Settings()

	assert.Equal(t, 80, got.CapacityPerShift)
	assert.Equal(t, model.DefaultSettings().Rates, got.Rates)
	assert.Equal(t, model.DefaultSettings().Tiers, got.Tiers)
}

func TestUnreadableSnapshotFallsBackToDefaults(t *testing.T) {
	p := NewMemoryPersister()
	require.NoError(t, p.Save(context.Background(), keySettings, []byte(`{not json`)))

	s := openStore(t, p)
	assert.Equal(t, model.DefaultSettings(), s.Settings())
}

type failingPersister struct{ err error }

func (f failingPersister) Load(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingPersister) Save(context.Context, string, []byte) error  { return f.err }

func TestOpenFailsWhenStorageUnreachable(t *testing.T) {
	_, err := Open(context.Background(), failingPersister{err: errors.New("dial tcp: refused")})
	assert.Error(t, err)
}

type saveFailing struct {
	*MemoryPersister
}

func (saveFailing) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	s := openStore(t, saveFailing{NewMemoryPersister()})

	s.PrependBooking(booking("BK100001"))

	assert.Len(t, s.Bookings(), 1)
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := openStore(t, NewMemoryPersister())
	s.PrependBooking(booking("BK100001"))
	s.PrependLocker(model.LockerReceipt{ID: "LKR2610190001", Lockers: []string{"A1"}})

	list := s.Bookings()
	list[0].ID = "mutated"
	settings := s.Settings()
	settings.Rates[model.RateClassMorning] = model.Rate{}
	lockers := s.Lockers()
	lockers[0].Lockers[0] = "Z9"

	assert.Equal(t, "BK100001", s.Bookings()[0].ID)
	assert.Equal(t, model.DefaultSettings().Rates, s.Settings().Rates)
	assert.Equal(t, "A1", s.Lockers()[0].Lockers[0])
}

func TestVersionsAndSubscribers(t *testing.T) {
	s := openStore(t, NewMemoryPersister())

	var changes []model.Change
	cancel := s.Subscribe(func(c model.Change) { changes = append(changes, c) })

	s.PrependBooking(booking("BK100001"))
	s.ReplaceBookings([]model.Booking{booking("BK100002")})
	s.ReplaceSettings(model.DefaultSettings())

	assert.Equal(t, uint64(2), s.Version(model.ChangeBookings))
	assert.Equal(t, uint64(1), s.Version(model.ChangeSettings))
	assert.Equal(t, uint64(0), s.Version(model.ChangeLockers))
	assert.Equal(t, []model.Change{
		{Kind: model.ChangeBookings, Version: 1},
		{Kind: model.ChangeBookings, Version: 2},
		{Kind: model.ChangeSettings, Version: 1},
	}, changes)

	cancel()
	s.SetSyncID("other")
	assert.Len(t, changes, 3)
}

func TestUpdateLocker(t *testing.T) {
	s := openStore(t, NewMemoryPersister())
	s.PrependLocker(model.LockerReceipt{ID: "LKR2610190001"})

	updated, err := s.UpdateLocker("LKR2610190001", func(r *model.LockerReceipt) error {
		r.Returned = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Returned)
	assert.True(t, s.Lockers()[0].Returned)

	_, err = s.UpdateLocker("missing", func(*model.LockerReceipt) error { return nil })
	assert.ErrorIs(t, err, ErrReceiptNotFound)

	before := s.Version(model.ChangeLockers)
	_, err = s.UpdateLocker("LKR2610190001", func(*model.LockerReceipt) error { return errors.New("refused") })
	assert.Error(t, err)
	assert.Equal(t, before, s.Version(model.ChangeLockers))
}

func TestNextCounterPersistsAcrossReopen(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()

	s := openStore(t, p)
	for want := 1; want <= 3; want++ {
		n, err := s.NextCounter(ctx, "receipt_counter:261019")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	reopened := openStore(t, p)
	n, err := reopened.NextCounter(ctx, "receipt_counter:261019")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = reopened.NextCounter(ctx, "receipt_counter:261020")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeedSyncIDOnlyFillsAnEmptySlot(t *testing.T) {
	p := NewMemoryPersister()
	s := openStore(t, p)

	assert.True(t, s.SeedSyncID("branch-one"))
	assert.Equal(t, "branch-one", s.SyncID())
	assert.False(t, s.SeedSyncID("branch-two"))

	reopened := openStore(t, p)
	assert.False(t, reopened.SeedSyncID("branch-three"))
	assert.Equal(t, "branch-one", reopened.SyncID())
}
