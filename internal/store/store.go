// Package store persists marketplace ledger entries in a key-value backend
// and keeps an append-only journal of applied events.
package store

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/storage/database"
)

// DefaultCacheSize bounds the entry read cache. Listings and account roots
// are small; the cache mainly saves decode round-trips on hot listings.
const DefaultCacheSize = 4096

var errEntryExists = errors.New("entry already exists")
var errEntryMissing = errors.New("entry does not exist")

// Store is a market.LedgerView over a database.DB with a read-through LRU
// cache. Writes go through the cache so readers never observe stale data.
type Store struct {
	db    database.DB
	cache *lru.Cache[keylet.Keylet, []byte]
}

// New builds a store over db with the default cache size.
func New(db database.DB) (*Store, error) {
	return NewWithCacheSize(db, DefaultCacheSize)
}

func NewWithCacheSize(db database.DB, cacheSize int) (*Store, error) {
	cache, err := lru.New[keylet.Keylet, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// dbKey prefixes the 32-byte keylet key with its entry type byte.
func dbKey(k keylet.Keylet) []byte {
	out := make([]byte, 1+len(k.Key))
	out[0] = byte(k.Type)
	copy(out[1:], k.Key[:])
	return out
}

func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	if data, ok := s.cache.Get(k); ok {
		return data, nil
	}
	data, err := s.db.Read(context.Background(), dbKey(k))
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.cache.Add(k, data)
	return data, nil
}

func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	ok, err := s.Exists(k)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: type 0x%02x", errEntryExists, byte(k.Type))
	}
	return s.put(k, data)
}

func (s *Store) Update(k keylet.Keylet, data []byte) error {
	ok, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: type 0x%02x", errEntryMissing, byte(k.Type))
	}
	return s.put(k, data)
}

func (s *Store) Erase(k keylet.Keylet) error {
	if err := s.db.Delete(context.Background(), dbKey(k)); err != nil {
		return err
	}
	s.cache.Remove(k)
	return nil
}

func (s *Store) put(k keylet.Keylet, data []byte) error {
	if err := s.db.Write(context.Background(), dbKey(k), data); err != nil {
		return err
	}
	s.cache.Add(k, data)
	return nil
}
