package blob

import (
	"context"
	"sync"
)

// MemoryStorage keeps blobs in process memory. It backs tests and deployments
// without object storage.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

func (m *MemoryStorage) Put(_ context.Context, key string, data []byte, contentType string) (Object, error) {
	copied := append([]byte(nil), data...)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: copied, contentType: contentType}
	m.mu.Unlock()

	return Object{Key: key, Size: int64(len(copied)), ContentType: contentType}, nil
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, Object, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, Object{}, ErrNotFound
	}
	return append([]byte(nil), obj.data...), Object{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Ping(context.Context) error {
	return nil
}

// Len reports the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
