package slot

import (
	"context"
	"sync"
)

type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}
