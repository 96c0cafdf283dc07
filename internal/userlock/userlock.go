// Package userlock serializes achievement computations per user.
package userlock

import (
	"context"
	"sync"
)

// Locker hands out an exclusive lock per user id. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, userID string) (func(), error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Memory is an in-process Locker. Entries are dropped once nobody holds or waits on them.
type Memory struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*entry)}
}

func (m *Memory) Lock(ctx context.Context, userID string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[userID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.locks[userID] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(userID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(userID, e)
		})
	}, nil
}

func (m *Memory) release(userID string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, userID)
	}
}

// held reports how many users currently have lock entries.
func (m *Memory) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
