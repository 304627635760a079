package database

import "errors"

var (
	// ErrDBClosed is returned when operating on a closed database.
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrBatchOperationFailed is returned when a batch cannot be applied.
	ErrBatchOperationFailed = errors.New("batch operation failed")
)
