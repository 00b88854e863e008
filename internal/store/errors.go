package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	ErrCheckInClosed  = errors.New("check-in is already closed")
	ErrInvalidField   = errors.New("field cannot be written")
)
