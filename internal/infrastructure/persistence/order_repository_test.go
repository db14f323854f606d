package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupbuy/backend/internal/domain/order"
	"github.com/groupbuy/backend/internal/domain/shared"
)

func TestGormOrderRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	gb := seedOpenGroupBuy(t, db, 10)
	o := seedOrderedOrder(t, db, uuid.New(), gb, 2)

	found, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusOrdered, found.Status)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
	assert.True(t, found.TotalAmount.Equals(o.TotalAmount))
	assert.NotNil(t, found.OrderedAt)
}

func TestGormOrderRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	gb := seedOpenGroupBuy(t, db, 10)
	o := seedOrderedOrder(t, db, uuid.New(), gb, 2)

	require.NoError(t, o.Refund())
	o.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(context.Background(), o))

	found, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusRefunded, found.Status)
	assert.Equal(t, 2, found.Version)
}

func TestGormOrderRepository_SaveWithLock_VersionConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	gb := seedOpenGroupBuy(t, db, 10)
	o := seedOrderedOrder(t, db, uuid.New(), gb, 2)

	stale, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.NoError(t, o.Refund())
	require.NoError(t, repo.SaveWithLock(context.Background(), o))

	require.NoError(t, stale.Refund())
	err = repo.SaveWithLock(context.Background(), stale)

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormOrderRepository_FindByMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	gb := seedOpenGroupBuy(t, db, 100)
	memberID := uuid.New()
	seedOrderedOrder(t, db, memberID, gb, 1)
	seedOrderedOrder(t, db, memberID, gb, 2)
	seedOrderedOrder(t, db, uuid.New(), gb, 3)

	page, err := repo.FindByMember(context.Background(), memberID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	for _, item := range page.Items {
		assert.Equal(t, memberID, item.MemberID)
		assert.NotEmpty(t, item.Items)
	}
}

func TestGormOrderRepository_FindByGroupBuy_FiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	gb := seedOpenGroupBuy(t, db, 100)
	seedOrderedOrder(t, db, uuid.New(), gb, 1)
	refunded := seedOrderedOrder(t, db, uuid.New(), gb, 2)
	require.NoError(t, refunded.Refund())
	require.NoError(t, repo.SaveWithLock(context.Background(), refunded))

	filter := shared.DefaultFilter()
	filter.Filters["status"] = order.OrderStatusOrdered

	page, err := repo.FindByGroupBuy(context.Background(), gb.ID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestGormOrderRepository_SumOrderedQuantity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	gb := seedOpenGroupBuy(t, db, 100)
	memberID := uuid.New()
	seedOrderedOrder(t, db, memberID, gb, 2)
	seedOrderedOrder(t, db, memberID, gb, 3)
	seedOrderedOrder(t, db, uuid.New(), gb, 4)

	// Refunded orders stop counting against the member
	refunded := seedOrderedOrder(t, db, memberID, gb, 5)
	require.NoError(t, refunded.Refund())
	require.NoError(t, repo.SaveWithLock(context.Background(), refunded))

	total, err := repo.SumOrderedQuantity(context.Background(), memberID, gb.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestGormOrderRepository_SumOrderedQuantity_NoOrders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	total, err := repo.SumOrderedQuantity(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestGormOrderRepository_SumOrderedQuantityByGroupBuy(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	first := seedOpenGroupBuy(t, db, 100)
	second := seedOpenGroupBuy(t, db, 100)
	seedOrderedOrder(t, db, uuid.New(), first, 2)
	seedOrderedOrder(t, db, uuid.New(), first, 3)
	seedOrderedOrder(t, db, uuid.New(), second, 7)

	totals, err := repo.SumOrderedQuantityByGroupBuy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, totals[first.ID])
	assert.Equal(t, 7, totals[second.ID])
}
