package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type fileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultFilePath — путь файла сессии по умолчанию: <UserConfigDir>/paybudz/session.yaml.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "paybudz", "session.yaml"), nil
}

// NewFile создаёт хранилище в YAML-файле. Пустой path — DefaultFilePath().
// Каталог создаётся с правами 0700, сам файл пишется с правами 0600.
func NewFile(path string) (Store, error) {
	const op = "session.NewFile"

	if path == "" {
		p, err := DefaultFilePath()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &fileStore{path: path}, nil
}

func (s *fileStore) Get(ctx context.Context) (Credentials, error) {
	const op = "session.file.Get"

	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}

		return Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("%s: %w: %v", op, ErrCorrupted, err)
	}

	return c, nil
}

// Set пишет пару во временный файл рядом и атомарно переименовывает его,
// поэтому читатель видит либо старую, либо новую пару целиком.
func (s *fileStore) Set(ctx context.Context, c Credentials) error {
	const op = "session.file.Set"

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *fileStore) Clear(ctx context.Context) error {
	const op = "session.file.Clear"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *fileStore) Close() error { return nil }
