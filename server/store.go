package server

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var documentsBucket = []byte("documents")

// Store persists serialized grids in a bbolt file, keyed by document
// id. It backs the server's autosave.
type Store struct {
	db *bolt.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(docID string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Put([]byte(docID), data)
	})
}

func (s *Store) Load(docID string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(documentsBucket).Get([]byte(docID))
		if data != nil {
			out = append([]byte(nil), data...)
		}
		return nil
	})
	return out, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
