package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dnastudio/core"

	"github.com/sirupsen/logrus"
)

type memStore struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

// NewStore creates an in-memory collection store. Contents are lost when
// the process exits.
func NewStore() *memStore {
	return &memStore{collections: make(map[string][]byte)}
}

func (s *memStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := core.ValidateCollectionName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[name]
	if !ok {
		logrus.WithField("collection", name).Debug("Collection not found")
		return nil, fmt.Errorf("collection %s: %w", name, core.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *memStore) Save(ctx context.Context, name string, data []byte) error {
	if err := core.ValidateCollectionName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[name] = append([]byte(nil), data...)
	logrus.WithFields(logrus.Fields{
		"collection":  name,
		"data_length": len(data),
	}).Debug("Collection saved")
	return nil
}

func (s *memStore) Append(ctx context.Context, name string, entry []byte) error {
	if err := core.ValidateCollectionName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := core.AppendEntry(s.collections[name], entry)
	if err != nil {
		return err
	}
	s.collections[name] = updated
	return nil
}

func (s *memStore) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
