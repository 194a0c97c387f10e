package catalog

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// Collection names used in the key-value store.
const (
	CollectionBooks   = "books"
	CollectionHistory = "history"
	CollectionTheme   = "theme"
)

// Storage is the key-value persistence the catalog writes through.
type Storage interface {
	// Save replaces the serialized state stored under collection.
	Save(collection string, data []byte) error
	// Load returns the serialized state of collection; found is false when
	// nothing was ever saved under that name.
	Load(collection string) (data []byte, found bool, err error)
}

// BatchSaver is implemented by storages that can write several collections
// atomically.
type BatchSaver interface {
	SaveBatch(collections map[string][]byte) error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// loadJSON decodes collection into v. found is false when the collection is
// absent and v was left untouched.
func loadJSON(s Storage, collection string, v any) (bool, error) {
	data, found, err := s.Load(collection)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// MemoryStorage keeps collections in a map. It is safe for concurrent use.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Save(collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[collection] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) SaveBatch(collections map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, data := range collections {
		m.data[name] = append([]byte(nil), data...)
	}
	return nil
}

func (m *MemoryStorage) Load(collection string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[collection]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}
