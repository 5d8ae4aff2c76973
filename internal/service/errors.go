package service

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUnknownSlot     = errors.New("unknown slot")
	ErrDateBlocked     = errors.New("date is blocked for bookings")
	ErrDraftNotFound   = errors.New("checkout draft not found or expired")
	ErrAlreadyReturned = errors.New("locker receipt already returned")
)
