package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tordrt/prismagen/internal/schema"
)

// LevelDBStore keeps msgpack-encoded documents in a LevelDB directory
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens or creates the LevelDB directory at path
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

// Load returns the document stored under key
func (s *LevelDBStore) Load(ctx context.Context, key string) (*schema.Document, error) {
	data, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc schema.Document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// Save replaces the document stored under key
func (s *LevelDBStore) Save(ctx context.Context, key string, doc *schema.Document) error {
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return s.db.Put([]byte(key), data, &opt.WriteOptions{Sync: true})
}

// Close closes the leveldb database
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
