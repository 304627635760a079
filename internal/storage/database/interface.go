// Package database defines the key-value storage contract the marketplace
// store is built on. Backends: pebble (default), leveldb, memory.
package database

import (
	"context"
)

// DB is the operation set every backend must support.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies all operations atomically.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator traverses keys in [start, end] in ascending order. A nil
	// start begins at the first key; a nil end runs to the last.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Iterator traverses database entries. Key and Value are valid until the
// next call to Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperation is a single write or delete inside a batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// Manager opens named databases under a common root and closes them on
// shutdown.
type Manager interface {
	OpenDB(name string) (DB, error)
	CloseDB(name string) error
	Close() error
}
