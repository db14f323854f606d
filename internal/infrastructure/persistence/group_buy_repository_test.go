package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/shared"
)

func TestGormGroupBuyRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	gb := seedOpenGroupBuy(t, db, 100)

	found, err := repo.FindByID(context.Background(), gb.ID)
	require.NoError(t, err)
	assert.Equal(t, gb.Title, found.Title)
	assert.Equal(t, groupbuy.GroupBuyStatusOpen, found.Status)
	require.Len(t, found.Options, 1)
	assert.Equal(t, 100, found.Options[0].Stock)
	assert.Len(t, found.DiscountStages, 2)
}

func TestGormGroupBuyRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormGroupBuyRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	gb := seedOpenGroupBuy(t, db, 10)

	require.NoError(t, gb.Close(groupbuy.CloseReasonSeller, time.Now()))
	gb.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(context.Background(), gb))
	assert.Equal(t, 2, gb.Version)

	found, err := repo.FindByID(context.Background(), gb.ID)
	require.NoError(t, err)
	assert.Equal(t, groupbuy.GroupBuyStatusClosed, found.Status)
	assert.Equal(t, groupbuy.CloseReasonSeller, found.CloseReason)
	assert.NotNil(t, found.ClosedAt)
	assert.Equal(t, 2, found.Version)
}

func TestGormGroupBuyRepository_SaveWithLock_VersionConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	gb := seedOpenGroupBuy(t, db, 10)

	// Another writer committed first
	stale, err := repo.FindByID(context.Background(), gb.ID)
	require.NoError(t, err)
	require.NoError(t, gb.Close(groupbuy.CloseReasonSeller, time.Now()))
	require.NoError(t, repo.SaveWithLock(context.Background(), gb))

	require.NoError(t, stale.Close(groupbuy.CloseReasonExpired, time.Now()))
	err = repo.SaveWithLock(context.Background(), stale)

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormGroupBuyRepository_FindAll_FiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	open := seedOpenGroupBuy(t, db, 10)
	closed := seedOpenGroupBuy(t, db, 10)
	require.NoError(t, closed.Close(groupbuy.CloseReasonSeller, time.Now()))
	require.NoError(t, repo.SaveWithLock(context.Background(), closed))

	filter := shared.DefaultFilter()
	filter.Filters["status"] = groupbuy.GroupBuyStatusOpen

	page, err := repo.FindAll(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, open.ID, page.Items[0].ID)
	require.Len(t, page.Items[0].Options, 1)
}

func TestGormGroupBuyRepository_FindAll_Paginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	for i := 0; i < 5; i++ {
		seedOpenGroupBuy(t, db, 10)
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 2
	filter.Page = 2

	page, err := repo.FindAll(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.TotalPages)
}

func TestGormGroupBuyRepository_FindExpiredOpen(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	expired := seedOpenGroupBuy(t, db, 10)
	require.NoError(t, db.Model(&groupbuy.GroupBuy{}).
		Where("id = ?", expired.ID).
		Update("end_at", time.Now().Add(-time.Minute)).Error)
	seedOpenGroupBuy(t, db, 10) // still running

	found, err := repo.FindExpiredOpen(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, expired.ID, found[0].ID)
}

func TestGormGroupBuyRepository_IncrementOrderCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	gb := seedOpenGroupBuy(t, db, 10)

	total, err := repo.IncrementOrderCount(context.Background(), gb.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = repo.IncrementOrderCount(context.Background(), gb.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	found, err := repo.FindByID(context.Background(), gb.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.OrderCount)
}

func TestGormGroupBuyRepository_IncrementOrderCount_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	_, err := repo.IncrementOrderCount(context.Background(), uuid.New(), 1)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormGroupBuyRepository_OrderCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupBuyRepository(db)

	first := seedOpenGroupBuy(t, db, 10)
	second := seedOpenGroupBuy(t, db, 10)
	_, err := repo.IncrementOrderCount(context.Background(), first.ID, 5)
	require.NoError(t, err)

	counts, err := repo.OrderCounts(context.Background(), groupbuy.GroupBuyStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, 5, counts[first.ID])
	assert.Equal(t, 0, counts[second.ID])
}
