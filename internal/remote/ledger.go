// Package remote talks to the shared ledger every installation reads and
// writes.  The ledger is a document store: settings and per-partition
// booking lists are fetched and replaced wholesale, never patched.
package remote

import (
	"context"
	"errors"

	"github.com/iliyamo/park-ledger/internal/model"
)

// ErrNotFound means the remote holds no document for the request.  The
// reconciliation loop treats it as "no update available".
var ErrNotFound = errors.New("remote document not found")

// Ledger is the remote ledger collaborator.
type Ledger interface {
	FetchSettings(ctx context.Context) (model.Settings, error)
	StoreSettings(ctx context.Context, s model.Settings) error
	FetchBookings(ctx context.Context, syncID string) ([]model.Booking, error)
	StoreBookings(ctx context.Context, syncID string, list []model.Booking) error
}
