package store

import "errors"

var (
	ErrRequestNotFound      = errors.New("request not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrPickupPersonNotFound = errors.New("pickup person not found")
	ErrInvalidState         = errors.New("invalid request state")
	ErrEmailTaken           = errors.New("email already registered")
	ErrTicketResolved       = errors.New("ticket already resolved")
	ErrInvalidStatus        = errors.New("invalid status value")
)
