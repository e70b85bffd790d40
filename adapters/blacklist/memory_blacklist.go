package blacklist

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

// ReapInterval is how often the background reaper sweeps expired entries.
const ReapInterval = 5 * time.Minute

// MemoryBlacklist is an in-process revocation list. Entries are kept sorted
// by expiry so the reaper can drop the expired prefix without scanning the
// whole list. It lives for the process lifetime and is never persisted; a
// restart forgives all revocations.
//
// Recovery policy: if a previous lock holder panicked mid-mutation, the
// list contents are suspect. The next acquirer logs the incident and
// continues with an empty list instead of failing. Losing revocation
// history is preferable to refusing every request.
type MemoryBlacklist struct {
	mu      sync.Mutex
	damaged bool
	entries []core.RevokedToken // ascending by ExpiresAt
	logger  *log.Logger
}

// NewMemoryBlacklist creates the list and starts its reaper. The reaper
// goroutine runs for the lifetime of the process and is intentionally
// never joined; pass a cancellable context to NewMemoryBlacklistWithInterval
// if a shutdown hook is needed.
func NewMemoryBlacklist(logger *log.Logger) *MemoryBlacklist {
	return NewMemoryBlacklistWithInterval(context.Background(), logger, ReapInterval)
}

// NewMemoryBlacklistWithInterval creates the list with a custom sweep
// interval. The reaper stops when ctx is cancelled.
func NewMemoryBlacklistWithInterval(ctx context.Context, logger *log.Logger, interval time.Duration) *MemoryBlacklist {
	b := &MemoryBlacklist{logger: logger}
	go b.reap(ctx, interval)
	return b
}

// Insert adds a revoked token, keeping the list ordered by expiry.
// Inserting the same token twice leaves a harmless duplicate entry; both
// are matched by Contains and both age out together.
func (b *MemoryBlacklist) Insert(ctx context.Context, entry core.RevokedToken) error {
	b.withLock(func() {
		i := sort.Search(len(b.entries), func(i int) bool {
			return b.entries[i].ExpiresAt.After(entry.ExpiresAt)
		})
		b.entries = append(b.entries, core.RevokedToken{})
		copy(b.entries[i+1:], b.entries[i:])
		b.entries[i] = entry
	})
	return nil
}

// Contains reports whether the raw token string has been revoked. A linear
// scan is fine here: the reaper and the token lifetime bound the list to at
// most one lifetime-window's worth of logouts.
func (b *MemoryBlacklist) Contains(ctx context.Context, rawToken string) (bool, error) {
	var found bool
	b.withLock(func() {
		for i := range b.entries {
			if b.entries[i].Token == rawToken {
				found = true
				return
			}
		}
	})
	return found, nil
}

// PurgeExpired removes every entry whose expiry precedes now and returns
// how many were dropped. Sorted order makes this a prefix operation: the
// scan stops at the first entry still alive.
func (b *MemoryBlacklist) PurgeExpired(now time.Time) int {
	var dropped int
	b.withLock(func() {
		for dropped < len(b.entries) && b.entries[dropped].ExpiresAt.Before(now) {
			dropped++
		}
		if dropped > 0 {
			b.entries = append(b.entries[:0], b.entries[dropped:]...)
		}
	})
	return dropped
}

// Len reports the current number of entries.
func (b *MemoryBlacklist) Len() int {
	var n int
	b.withLock(func() { n = len(b.entries) })
	return n
}

// withLock runs fn with exclusive access to the entries. A panic inside fn
// marks the list damaged before the lock is released, so the next acquirer
// can apply the reset-to-empty recovery.
func (b *MemoryBlacklist) withLock(fn func()) {
	b.mu.Lock()
	if b.damaged {
		b.logger.Warn("revocation list damaged by a previous holder, resetting",
			"dropped_entries", len(b.entries))
		b.entries = nil
		b.damaged = false
	}
	defer func() {
		if r := recover(); r != nil {
			b.damaged = true
			b.mu.Unlock()
			panic(r)
		}
		b.mu.Unlock()
	}()
	fn()
}

// reap wakes on every tick and evicts naturally-expired entries so the
// list stays bounded without callers paying eviction cost.
func (b *MemoryBlacklist) reap(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := b.PurgeExpired(time.Now()); n > 0 {
				b.logger.Debug("reaped expired revocations", "count", n, "remaining", b.Len())
			}
		}
	}
}

var _ ports.Blacklist = (*MemoryBlacklist)(nil)
