package sitekit

import "sync"

// Storage keys used by the engine. Content and session keys never overlap,
// so the two stores never interleave writes to the same key.
const (
	keyPosts      = "blog_posts"
	keyCategories = "blog_categories"
	keyAuthors    = "blog_authors"
	keySettings   = "blog_settings"
	keyImages     = "blog_images"
	keyAuthToken  = "admin_auth_token"
	keyUserData   = "admin_user_data"
)

// Storage is the pluggable key-value persistence layer behind both the
// content store and the session store. Implementations must make a Set
// visible to any Get that starts after Set returns.
type Storage interface {
	// Get returns the value for key. The second return is false when the
	// key has never been written (not an error).
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// MemoryStorage is a map-backed Storage for tests and ephemeral runs.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage returns an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate the stored value.
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.data[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Close() error { return nil }
