// Package lock serializes mutations per franchise. A processor takes the locks for
// every franchise it touches before validating and releases them after applying.
package lock

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// LeagueKey guards league-wide operations such as season rollover.
const LeagueKey = "league"

// Locker acquires a set of keys as one unit. Keys are always taken in sorted order so
// overlapping callers cannot deadlock.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (Unlock, error)
}

// Unlock releases everything a Lock call acquired.
type Unlock func()

// FranchiseKey returns the lock key for a franchise.
func FranchiseKey(id uuid.UUID) string {
	return "franchise:" + id.String()
}

// FranchiseKeys returns the lock keys for ids.
func FranchiseKeys(ids ...uuid.UUID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = FranchiseKey(id)
	}
	return keys
}

func normalize(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// LocalLocker locks keys within one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	keys = normalize(keys)
	held := make([]chan struct{}, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, key := range keys {
		ch := l.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}
