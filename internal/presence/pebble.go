package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// PebbleStore implements Store on a pebble key-value database.
//
// Keys:
//
//	status:<accountID>          -> JSON Status
//	conn:<accountID>:<connID>   -> empty (set membership)
type PebbleStore struct {
	db *pebble.DB
}

var _ Store = (*PebbleStore)(nil)

// Open opens (or creates) a pebble database at path.
func Open(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// OpenMem opens an in-memory store, used by tests.
func OpenMem() (*PebbleStore, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("open pebble (mem): %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func statusKey(accountID int64) []byte {
	return []byte(fmt.Sprintf("status:%d", accountID))
}

func connKey(accountID int64, connID string) []byte {
	return []byte(fmt.Sprintf("conn:%d:%s", accountID, connID))
}

func connPrefix(accountID int64) []byte {
	return []byte(fmt.Sprintf("conn:%d:", accountID))
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *PebbleStore) SetStatus(_ context.Context, accountID int64, st Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := s.db.Set(statusKey(accountID), data, pebble.Sync); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func (s *PebbleStore) GetStatus(_ context.Context, accountID int64) (Status, bool, error) {
	val, closer, err := s.db.Get(statusKey(accountID))
	if errors.Is(err, pebble.ErrNotFound) {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, fmt.Errorf("get status: %w", err)
	}
	defer closer.Close()

	var st Status
	if err := json.Unmarshal(val, &st); err != nil {
		return Status{}, false, fmt.Errorf("unmarshal status: %w", err)
	}
	return st, true, nil
}

func (s *PebbleStore) AddConnection(_ context.Context, accountID int64, connID string) error {
	if err := s.db.Set(connKey(accountID, connID), nil, pebble.Sync); err != nil {
		return fmt.Errorf("add connection: %w", err)
	}
	return nil
}

func (s *PebbleStore) RemoveConnection(_ context.Context, accountID int64, connID string) error {
	if err := s.db.Delete(connKey(accountID, connID), pebble.Sync); err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}
	return nil
}

func (s *PebbleStore) CountConnections(_ context.Context, accountID int64) (int, error) {
	prefix := connPrefix(accountID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return 0, fmt.Errorf("iterate connections: %w", err)
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("iterate connections: %w", err)
	}
	return count, nil
}
