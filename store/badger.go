package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/rustyeddy/tradergame/game"
)

var stateKey = []byte("session_state")

// BadgerRepository keeps the session under a single key in a Badger
// database directory.
type BadgerRepository struct {
	db  *badger.DB
	now func() time.Time
}

func NewBadgerRepository(dir string) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return &BadgerRepository{db: db, now: time.Now}, nil
}

// SaveState writes st as JSON, replacing any earlier save.
func (r *BadgerRepository) SaveState(st game.State) error {
	data, err := json.Marshal(Snapshot{SavedAt: r.now().UTC(), State: st})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey, data)
	})
}

func (r *BadgerRepository) LoadState() (Snapshot, error) {
	var snap Snapshot
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				return errors.New("state value is empty")
			}
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Snapshot{}, ErrNoState
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load state: %w", err)
	}
	return snap, nil
}

// Clear removes the saved state. Clearing an empty store is not an error.
func (r *BadgerRepository) Clear() error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(stateKey)
	})
}

func (r *BadgerRepository) Close() error {
	return r.db.Close()
}
