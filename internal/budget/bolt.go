package budget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketBudgets = []byte("budgets")

// BoltStore keeps one budget per key in a bbolt bucket. List order is by provider name.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens or creates the database at path
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create budgets directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBudgets)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// List returns every budget
func (s *BoltStore) List() ([]Budget, error) {
	list := []Budget{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		list, err = readAll(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Set stores b under its provider, replacing any previous value
func (s *BoltStore) Set(b Budget) ([]Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	value, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode budget: %w", err)
	}

	var list []Budget
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketBudgets).Put([]byte(b.Provider), value); err != nil {
			return err
		}
		list, err = readAll(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes the budget for providerName if present
func (s *BoltStore) Delete(providerName string) ([]Budget, error) {
	providerName = ProviderKey(providerName)
	if err := ValidateProvider(providerName); err != nil {
		return nil, err
	}

	var list []Budget
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketBudgets).Delete([]byte(providerName)); err != nil {
			return err
		}
		var err error
		list, err = readAll(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Close releases the database file lock
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func readAll(tx *bbolt.Tx) ([]Budget, error) {
	list := []Budget{}
	err := tx.Bucket(bucketBudgets).ForEach(func(k, v []byte) error {
		var b Budget
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("failed to decode budget %s: %w", k, err)
		}
		list = append(list, b)
		return nil
	})
	return list, err
}
