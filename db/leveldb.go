package db

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type LevelDB struct {
	db *leveldb.DB
}

func (l LevelDB) Put(key []byte, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}

	return val, err
}

func (l LevelDB) Close() error {
	return l.db.Close()
}

func NewLevelDB(dbDir string) (IDB, error) {
	db, err := leveldb.OpenFile(dbDir, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{db: db}, nil
}

// NewMemLevelDB opens a leveldb backed by memory, for tests and dry runs.
func NewMemLevelDB() (IDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{db: db}, nil
}
