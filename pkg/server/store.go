package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/logsift/pkg/analyzer"
)

// ErrDatasetNotFound is returned for an unknown dataset id.
var ErrDatasetNotFound = errors.New("dataset not found")

// FileError describes one uploaded file that could not be read.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Dataset is one parsed upload.
type Dataset struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Result     *analyzer.Result `json:"-"`
	FileErrors []FileError      `json:"file_errors"`
}

// Store keeps parsed datasets.
type Store interface {
	Put(result *analyzer.Result, fileErrors []FileError) *Dataset
	Get(id string) (*Dataset, error)
	Delete(id string) error
	Len() int
}

type inMemoryStore struct {
	datasets map[string]*Dataset
	mu       sync.RWMutex
}

// NewInMemoryStore returns a Store that lives only as long as the process.
func NewInMemoryStore() Store {
	return &inMemoryStore{
		datasets: make(map[string]*Dataset),
	}
}

func (s *inMemoryStore) Put(result *analyzer.Result, fileErrors []FileError) *Dataset {
	if fileErrors == nil {
		fileErrors = []FileError{}
	}
	ds := &Dataset{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		Result:     result,
		FileErrors: fileErrors,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.ID] = ds
	return ds
}

func (s *inMemoryStore) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ds, ok := s.datasets[id]; ok {
		return ds, nil
	}
	return nil, ErrDatasetNotFound
}

func (s *inMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[id]; !ok {
		return ErrDatasetNotFound
	}
	delete(s.datasets, id)
	return nil
}

func (s *inMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
