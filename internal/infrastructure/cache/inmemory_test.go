package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	t.Run("first mark wins", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, isNew)

		processed, err := store.IsProcessed(ctx, "evt-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("expired entry can be remarked", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "evt-2", time.Nanosecond)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(5 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "evt-2")
		require.NoError(t, err)
		assert.False(t, processed)

		isNew, err = store.MarkProcessed(ctx, "evt-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore()
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
	})
}

func TestInMemoryMemberLock(t *testing.T) {
	ctx := context.Background()
	lock := NewInMemoryMemberLock()
	member, groupBuy := uuid.New(), uuid.New()

	t.Run("acquire and release", func(t *testing.T) {
		token, ok, err := lock.Acquire(ctx, member, groupBuy, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEmpty(t, token)

		_, ok, err = lock.Acquire(ctx, member, groupBuy, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, lock.Release(ctx, member, groupBuy, token))

		_, ok, err = lock.Acquire(ctx, member, groupBuy, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("locks are scoped per member and group buy", func(t *testing.T) {
		_, ok, err := lock.Acquire(ctx, uuid.New(), groupBuy, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		_, ok, err = lock.Acquire(ctx, member, uuid.New(), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired lock is reclaimed", func(t *testing.T) {
		m, g := uuid.New(), uuid.New()
		_, ok, err := lock.Acquire(ctx, m, g, time.Nanosecond)
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(5 * time.Millisecond)

		_, ok, err = lock.Acquire(ctx, m, g, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stale token does not release the next holder's lock", func(t *testing.T) {
		m, g := uuid.New(), uuid.New()
		staleToken, ok, err := lock.Acquire(ctx, m, g, time.Nanosecond)
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(5 * time.Millisecond)

		// The TTL expired and a new admission took the lock
		_, ok, err = lock.Acquire(ctx, m, g, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		// The first holder's late release must leave it held
		require.NoError(t, lock.Release(ctx, m, g, staleToken))

		_, ok, err = lock.Acquire(ctx, m, g, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release of unheld lock is a no-op", func(t *testing.T) {
		assert.NoError(t, lock.Release(ctx, uuid.New(), uuid.New(), "no-such-token"))
	})
}

func TestInMemoryRankingStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRankingStore()

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	score, err := store.IncrementScore(ctx, a, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, score)

	_, err = store.IncrementScore(ctx, b, 9)
	require.NoError(t, err)
	_, err = store.IncrementScore(ctx, c, 2)
	require.NoError(t, err)
	score, err = store.IncrementScore(ctx, a, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, score)

	t.Run("top orders by score", func(t *testing.T) {
		top, err := store.Top(ctx, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, b, top[0].GroupBuyID)
		assert.Equal(t, 9, top[0].OrderCount)
		assert.Equal(t, 1, top[0].Rank)
		assert.Equal(t, a, top[1].GroupBuyID)
		assert.Equal(t, 2, top[1].Rank)
	})

	t.Run("set scores replaces everything", func(t *testing.T) {
		require.NoError(t, store.SetScores(ctx, map[uuid.UUID]int{c: 100}))
		top, err := store.Top(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, c, top[0].GroupBuyID)
	})

	t.Run("remove drops the entry", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, c))
		top, err := store.Top(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, top)
	})
}
