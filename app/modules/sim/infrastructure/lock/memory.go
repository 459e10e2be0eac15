package simlock

import (
	"context"
	"sync"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
)

// MemoryLock keeps flags in process. Used for single-process leagues and the CLI.
type MemoryLock struct {
	mu    sync.Mutex
	flags map[string]bool
}

// NewMemoryLock returns a lock with every flag cleared.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{flags: make(map[string]bool)}
}

func (l *MemoryLock) TryStartGames(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.flags[simdomain.FlagGameSim] {
		return false, nil
	}
	l.flags[simdomain.FlagGameSim] = true
	return true, nil
}

func (l *MemoryLock) Set(_ context.Context, flag string, value bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flags[flag] = value
	return nil
}

func (l *MemoryLock) Get(_ context.Context, flag string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flags[flag], nil
}
