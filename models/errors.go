package models

import "errors"

var (
	// ErrNotFound is returned by stores when a lookup or targeted update matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDeleted is returned when a unique key belongs to a soft-deleted row.
	ErrDeleted = errors.New("record deleted")
)
