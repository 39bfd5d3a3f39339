package session

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewMemory создаёт хранилище в памяти процесса. Пара теряется при перезапуске.
func NewMemory() Store {
	return &memoryStore{}
}

func (s *memoryStore) Get(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds, nil
}

func (s *memoryStore) Set(ctx context.Context, c Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()

	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.creds = Credentials{}
	s.mu.Unlock()

	return nil
}

func (s *memoryStore) Close() error { return nil }
