package model

// ChangeKind names the ledger collection touched by a store write.
type ChangeKind string

const (
	ChangeBookings ChangeKind = "bookings"
	ChangeSettings ChangeKind = "settings"
	ChangeLockers  ChangeKind = "lockers"
	ChangeSyncID   ChangeKind = "sync_id"
)

// Change is delivered to store subscribers after every write.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Version uint64     `json:"version"`
}
