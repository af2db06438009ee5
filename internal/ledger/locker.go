package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Entity kinds used in lock keys and metrics.
const (
	KindGiftCard      = "gift_card"
	KindInventoryItem = "inventory_item"
	KindAccount       = "account"
	KindOrder         = "order"
	KindSale          = "sale"
)

// Key names a single lockable entity.
func Key(kind string, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// Locker serializes read-modify-write work per entity inside one process.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocker returns an empty keyed lock table.
func NewLocker() *Locker {
	return &Locker{slots: map[string]*slot{}}
}

// Lock acquires every key in sorted order and returns the release func. Sorting
// keeps two callers that share keys from deadlocking.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = dedupe(keys)
	acquired := make([]string, 0, len(keys))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			l.unlock(acquired[i])
		}
	}

	for _, key := range keys {
		s := l.ref(key)
		select {
		case s.ch <- struct{}{}:
			acquired = append(acquired, key)
		case <-ctx.Done():
			l.deref(key)
			release()
			return func() {}, ctx.Err()
		}
	}
	return release, nil
}

func (l *Locker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Locker) deref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *Locker) unlock(key string) {
	l.mu.Lock()
	s := l.slots[key]
	l.mu.Unlock()
	<-s.ch
	l.deref(key)
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
