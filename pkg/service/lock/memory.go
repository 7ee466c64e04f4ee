package lock

import (
	"context"
	"sync"

	"github.com/insurdesk/concierge/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process keyed lock
type Memory struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ interfaces.Locker = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]chan struct{})}
}

func (m *Memory) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.slots[key] = ch
	}
	return ch
}

func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	ch := m.slot(key)

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "failed to acquire lock", goerr.V("key", key))
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
