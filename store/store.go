// Package store persists game sessions between runs.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradergame/game"
)

// ErrNoState is returned by LoadState when nothing has been saved yet.
var ErrNoState = errors.New("no saved state")

// Snapshot is a saved session with the time it was written.
type Snapshot struct {
	SavedAt time.Time  `json:"savedAt" yaml:"savedAt"`
	State   game.State `json:"state" yaml:"state"`
}

// StateRepository saves and loads the single session state.
type StateRepository interface {
	SaveState(st game.State) error
	LoadState() (Snapshot, error)
	Clear() error
	Close() error
}

// Open returns the repository for kind ("badger" or "file") at path.
func Open(kind, path string) (StateRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	switch strings.ToLower(kind) {
	case "", "badger":
		return NewBadgerRepository(path)
	case "file":
		return NewFileRepository(path), nil
	}
	return nil, fmt.Errorf("store: unknown type %q (want badger or file)", kind)
}
