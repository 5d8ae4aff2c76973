package model

import "time"

// CostumeCounts is the number of swim costumes handed out with a receipt.
type CostumeCounts struct {
	Adult int `json:"adult"`
	Kid   int `json:"kid"`
}

// Total returns the number of costumes across both sizes.
func (c CostumeCounts) Total() int { return c.Adult + c.Kid }

// LockerReceipt is an entry in the locker/costume desk ledger.  The desk
// ledger is local to an installation and never reconciled remotely.
type LockerReceipt struct {
	ID           string        `json:"id"`
	GuestName    string        `json:"guest_name"`
	GuestContact string        `json:"guest_contact"`
	Lockers      []string      `json:"lockers"`
	Costumes     CostumeCounts `json:"costumes"`
	Rent         int64         `json:"rent"`
	Deposit      int64         `json:"deposit"`
	Returned     bool          `json:"returned"`
	IssuedAt     time.Time     `json:"issued_at"`
	ReturnedAt   *time.Time    `json:"returned_at,omitempty"`
}
