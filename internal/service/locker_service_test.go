package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/park-ledger/internal/ident"
	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/store"
)

func newLockerService(t *testing.T) (*LockerService, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), store.NewMemoryPersister())
	require.NoError(t, err)
	svc := NewLockerService(st, ident.NewReceiptIssuer(st, time.UTC))
	svc.now = func() time.Time { return fixedNow }
	return svc, st
}

func TestIssueLockerReceipt(t *testing.T) {
	ctx := context.Background()
	svc, st := newLockerService(t)

	r, err := svc.Issue(ctx, IssueRequest{
		GuestName: "Kiran",
		Lockers:   []string{" a1", "A1", "b2", ""},
		Costumes:  model.CostumeCounts{Adult: 1, Kid: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, "LKR2610190001", r.ID)
	assert.Equal(t, []string{"A1", "B2"}, r.Lockers)
	assert.Equal(t, int64(2*100+3*150), r.Rent)
	assert.Equal(t, int64(2*200+3*100), r.Deposit)
	assert.False(t, r.Returned)
	require.Len(t, st.Lockers(), 1)

	r2, err := svc.Issue(ctx, IssueRequest{Lockers: []string{"C3"}})
	require.NoError(t, err)
	assert.Equal(t, "LKR2610190002", r2.ID)
	assert.Equal(t, "LKR2610190002", svc.List(false)[0].ID, "most recent first")
}

func TestIssueRejectsEmptyRental(t *testing.T) {
	svc, _ := newLockerService(t)

	_, err := svc.Issue(context.Background(), IssueRequest{Lockers: []string{" "}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Issue(context.Background(), IssueRequest{Costumes: model.CostumeCounts{Adult: -1, Kid: 2}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestReturnLockerReceipt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLockerService(t)
	r, err := svc.Issue(ctx, IssueRequest{Lockers: []string{"A1"}})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueRequest{Lockers: []string{"A2"}})
	require.NoError(t, err)

	returned, err := svc.Return(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, returned.Returned)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, fixedNow, *returned.ReturnedAt)

	_, err = svc.Return(ctx, r.ID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)

	_, err = svc.Return(ctx, "LKR0000000000")
	assert.ErrorIs(t, err, store.ErrReceiptNotFound)

	open := svc.List(true)
	require.Len(t, open, 1)
	assert.Equal(t, []string{"A2"}, open[0].Lockers)
	assert.Len(t, svc.List(false), 2)
}
