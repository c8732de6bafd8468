package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type fileDocument struct {
	Budgets []Budget `json:"budgets"`
}

// FileStore keeps budgets in a single JSON document. Writes from this process are
// serialized; other processes writing the same file win by last write.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// List returns budgets in insertion order
func (s *FileStore) List() ([]Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Set upserts b by provider
func (s *FileStore) Set(b Budget) ([]Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		return nil, err
	}
	list = upsert(list, b)
	if err := s.write(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes the budget for providerName. Deleting a missing budget is not an error.
func (s *FileStore) Delete(providerName string) ([]Budget, error) {
	providerName = ProviderKey(providerName)
	if err := ValidateProvider(providerName); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		return nil, err
	}
	list = remove(list, providerName)
	if err := s.write(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]Budget, error) {
	// #nosec G304 -- Budget path comes from service configuration
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Budget{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read budgets: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse budgets file %s: %w", s.path, err)
	}
	if doc.Budgets == nil {
		doc.Budgets = []Budget{}
	}
	return doc.Budgets, nil
}

func (s *FileStore) write(list []Budget) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create budgets directory: %w", err)
	}

	data, err := json.MarshalIndent(fileDocument{Budgets: list}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode budgets: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write budgets: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace budgets file: %w", err)
	}
	return nil
}
