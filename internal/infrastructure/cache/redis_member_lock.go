package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apporder "github.com/groupbuy/backend/internal/application/order"
)

// releaseScript deletes the lock key only when it still holds the caller's
// token, so a release arriving after TTL expiry cannot free a lock another
// admission has since taken.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisMemberLock implements the per-member admission lock on Redis.
// SETNX with a TTL gives a fail-fast distributed lock: the lock either
// exists (an admission is in flight) or it doesn't, and a crashed holder
// frees it when the TTL expires.
type RedisMemberLock struct {
	client *redis.Client
}

// NewRedisMemberLock creates a member lock over an existing Redis client
func NewRedisMemberLock(client *redis.Client) *RedisMemberLock {
	return &RedisMemberLock{client: client}
}

func memberLockKey(memberID, groupBuyID uuid.UUID) string {
	return fmt.Sprintf("order:lock:%s:%s", memberID, groupBuyID)
}

// Acquire tries to take the lock. Returns false when already held.
func (l *RedisMemberLock) Acquire(ctx context.Context, memberID, groupBuyID uuid.UUID, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, memberLockKey(memberID, groupBuyID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire member lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock when token matches the current holder's.
// Releasing with a stale token is a no-op.
func (l *RedisMemberLock) Release(ctx context.Context, memberID, groupBuyID uuid.UUID, token string) error {
	err := releaseScript.Run(ctx, l.client, []string{memberLockKey(memberID, groupBuyID)}, token).Err()
	if err != nil {
		return fmt.Errorf("failed to release member lock: %w", err)
	}
	return nil
}

var _ apporder.MemberLock = (*RedisMemberLock)(nil)
