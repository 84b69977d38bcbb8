package db

import "errors"

// ErrNotFound is returned by IDB.Get for a missing key.
var ErrNotFound = errors.New("key not found")

type IDB interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error

	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)

	Close() error
}
