package json

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/drakos74/free-cluster/internal/storage"
)

// Memory encodes values the same way as Blob but keeps the documents in memory.
// It is the snapshot store for runs that must not touch the disk, mostly tests.
type Memory struct {
	mutex sync.RWMutex
	docs  map[storage.Key][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[storage.Key][]byte),
	}
}

func (m *Memory) Store(k storage.Key, value interface{}) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode value for '%s': %w", k.Path(), err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.docs[k] = b
	return nil
}

func (m *Memory) Load(k storage.Key, value interface{}) error {
	m.mutex.RLock()
	b, ok := m.docs[k]
	m.mutex.RUnlock()

	if !ok {
		return fmt.Errorf("no document '%s': %w", k.Path(), storage.NotFoundErr)
	}
	if err := json.Unmarshal(b, value); err != nil {
		return fmt.Errorf("could not unmarshal '%s' %s: %w", k.Path(), err.Error(), storage.CouldNotLoadErr)
	}
	return nil
}

// Keys returns the stored keys ordered by label and k.
func (m *Memory) Keys() []storage.Key {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	keys := make([]storage.Key, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Label != keys[j].Label {
			return keys[i].Label < keys[j].Label
		}
		return keys[i].K < keys[j].K
	})
	return keys
}
