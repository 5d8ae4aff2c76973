// Package repository holds the MySQL backed persistence for the local
// ledger and the sentinel errors shared with its callers.
package repository

import "errors"

// ErrNotFound is returned when no snapshot is stored under a key.  Callers
// treat it as "use the defaults".
var ErrNotFound = errors.New("snapshot not found")
