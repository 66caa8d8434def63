// Package localstore is the durable key-value storage of the shop client.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var _ port.CartStorage = (*Store)(nil)

// SessionKey holds the session token of the logged in user.
const SessionKey = "session"

type Store struct {
	db *leveldb.DB
}

// Open opens or creates the database in the directory path.
func Open(path string) (*Store, error) {
	const op = "localstore.Open"

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{db}, nil
}

// OpenMemory opens a store that lives as long as the process.
func OpenMemory() (*Store, error) {
	const op = "localstore.OpenMemory"

	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{db}, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	const op = "localstore.Load"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	v, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// Save writes synchronously, the value survives a process crash.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	const op = "localstore.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.db.Put([]byte(key), data, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "localstore.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.db.Delete([]byte(key), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Close() {
	const op = "localstore.Close"

	if err := s.db.Close(); err != nil {
		slog.Error("failed to close", "op", op, "err", err)
	}
}
