package repository

import (
	"context"
	"sync"
)

type memoryCodeIndex struct {
	mu     sync.RWMutex
	owners map[string]string
}

func NewMemoryCodeIndex() CodeIndex {
	return &memoryCodeIndex{
		owners: make(map[string]string),
	}
}

func (i *memoryCodeIndex) Reserve(_ context.Context, code, ownerUID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, taken := i.owners[code]; taken {
		return false, nil
	}
	i.owners[code] = ownerUID
	return true, nil
}

func (i *memoryCodeIndex) Owner(_ context.Context, code string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.owners[code], nil
}

func (i *memoryCodeIndex) Release(_ context.Context, code string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.owners, code)
	return nil
}
