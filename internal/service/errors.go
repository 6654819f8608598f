package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("concurrent update conflict")
	ErrAlreadyPaid      = errors.New("payment already marked as paid")
	ErrStoreUnavailable = errors.New("store unavailable")
)
