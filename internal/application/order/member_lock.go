package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MemberLock serializes admissions per member per group buy. Acquire is
// fail-fast: a held lock means the member already has an admission in
// flight, and the caller rejects rather than waits.
type MemberLock interface {
	// Acquire tries to take the lock. On success it returns a token the
	// holder must present to Release. Returns acquired=false when the lock
	// is already held.
	Acquire(ctx context.Context, memberID, groupBuyID uuid.UUID, ttl time.Duration) (token string, acquired bool, err error)

	// Release frees the lock when the token still matches the current
	// holder. A stale token, such as one whose lock already expired and
	// was re-acquired, is a no-op.
	Release(ctx context.Context, memberID, groupBuyID uuid.UUID, token string) error
}
