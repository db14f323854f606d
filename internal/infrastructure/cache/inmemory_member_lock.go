package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apporder "github.com/groupbuy/backend/internal/application/order"
)

type memberLockEntry struct {
	token  string
	expiry time.Time
}

// InMemoryMemberLock implements the per-member admission lock with a local
// map. Suitable for single-instance deployments and tests. Expired locks
// are reclaimed lazily on the next Acquire.
type InMemoryMemberLock struct {
	mu    sync.Mutex
	locks map[string]memberLockEntry
}

// NewInMemoryMemberLock creates a new in-memory member lock
func NewInMemoryMemberLock() *InMemoryMemberLock {
	return &InMemoryMemberLock{locks: make(map[string]memberLockEntry)}
}

// Acquire tries to take the lock. Returns false when already held.
func (l *InMemoryMemberLock) Acquire(_ context.Context, memberID, groupBuyID uuid.UUID, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := memberLockKey(memberID, groupBuyID)
	if entry, held := l.locks[key]; held && time.Now().Before(entry.expiry) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.locks[key] = memberLockEntry{token: token, expiry: time.Now().Add(ttl)}
	return token, true, nil
}

// Release frees the lock when token matches the current holder's.
// Releasing with a stale token is a no-op.
func (l *InMemoryMemberLock) Release(_ context.Context, memberID, groupBuyID uuid.UUID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := memberLockKey(memberID, groupBuyID)
	if entry, held := l.locks[key]; held && entry.token == token {
		delete(l.locks, key)
	}
	return nil
}

var _ apporder.MemberLock = (*InMemoryMemberLock)(nil)
